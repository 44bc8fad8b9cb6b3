package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexusmind/nexusmind/internal/model"
)

// SubgraphCriterion selects a slice of the reasoning graph by property
// filters, optionally expanded to include neighbors.
type SubgraphCriterion struct {
	Name                    string
	Description             string
	MinAvgConfidence        float64
	MinImpactScore          float64
	NodeTypes               []model.NodeType
	LayerIDs                []string
	IncludeDisciplinaryTags []string
	ExcludeDisciplinaryTags []string
	IsKnowledgeGap          *bool
	IncludeNeighborsDepth   int
}

// FetchSubgraph returns nodes matching the criterion, plus their neighbors
// when IncludeNeighborsDepth > 0. The WHERE clause is assembled from fixed
// fragments; all user-influenced values travel as parameters.
func (s *Store) FetchSubgraph(ctx context.Context, c SubgraphCriterion) ([]*model.Node, error) {
	var clauses []string
	params := map[string]interface{}{}

	if c.MinAvgConfidence > 0 {
		clauses = append(clauses, `(coalesce(n.confidence_empirical_support, 0.0)
			+ coalesce(n.confidence_theoretical_basis, 0.0)
			+ coalesce(n.confidence_methodological_rigor, 0.0)
			+ coalesce(n.confidence_consensus_alignment, 0.0)) / 4.0 >= $min_avg_confidence`)
		params["min_avg_confidence"] = c.MinAvgConfidence
	}
	if c.MinImpactScore > 0 {
		clauses = append(clauses, "coalesce(n.metadata_impact_score, 0.0) >= $min_impact")
		params["min_impact"] = c.MinImpactScore
	}
	if len(c.NodeTypes) > 0 {
		types := make([]string, len(c.NodeTypes))
		for i, t := range c.NodeTypes {
			types[i] = string(t)
		}
		clauses = append(clauses, "n.type IN $node_types")
		params["node_types"] = types
	}
	if len(c.LayerIDs) > 0 {
		clauses = append(clauses, "n.metadata_layer_id IN $layer_ids")
		params["layer_ids"] = c.LayerIDs
	}
	if len(c.IncludeDisciplinaryTags) > 0 {
		clauses = append(clauses, "any(tag IN $include_tags WHERE tag IN coalesce(n.metadata_disciplinary_tags, []))")
		params["include_tags"] = c.IncludeDisciplinaryTags
	}
	if len(c.ExcludeDisciplinaryTags) > 0 {
		clauses = append(clauses, "none(tag IN $exclude_tags WHERE tag IN coalesce(n.metadata_disciplinary_tags, []))")
		params["exclude_tags"] = c.ExcludeDisciplinaryTags
	}
	if c.IsKnowledgeGap != nil {
		clauses = append(clauses, "coalesce(n.metadata_is_knowledge_gap, false) = $is_knowledge_gap")
		params["is_knowledge_gap"] = *c.IsKnowledgeGap
	}

	query := "MATCH (n:Node)"
	if len(clauses) > 0 {
		query += "\nWHERE " + strings.Join(clauses, "\n  AND ")
	}
	query += "\nRETURN properties(n) AS props"

	result, err := s.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("subgraph %q: %w", c.Name, err)
	}

	seen := make(map[string]*model.Node)
	order := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		props, ok := recordMap(rec, "props")
		if !ok {
			continue
		}
		n := NodeFromProps(props)
		if _, dup := seen[n.ID]; !dup {
			seen[n.ID] = n
			order = append(order, n.ID)
		}
	}

	if c.IncludeNeighborsDepth > 0 {
		for _, id := range append([]string(nil), order...) {
			neighborIDs, err := s.Neighborhood(ctx, id, c.IncludeNeighborsDepth)
			if err != nil {
				return nil, err
			}
			for _, nid := range neighborIDs {
				if _, dup := seen[nid]; dup {
					continue
				}
				neighbor, err := s.FetchNode(ctx, nid)
				if err != nil {
					continue
				}
				seen[nid] = neighbor
				order = append(order, nid)
			}
		}
	}

	nodes := make([]*model.Node, 0, len(order))
	for _, id := range order {
		nodes = append(nodes, seen[id])
	}
	return nodes, nil
}
