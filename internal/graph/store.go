package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/driver"
	"github.com/nexusmind/nexusmind/internal/model"
)

var ErrNotFound = errors.New("node not found")

// Store is the typed persistence layer every pipeline stage goes through.
type Store struct {
	driver driver.GraphDriver
	log    *zap.Logger
}

func NewStore(d driver.GraphDriver, log *zap.Logger) *Store {
	return &Store{driver: d, log: log}
}

func typeLabel(t model.NodeType) string {
	return strings.ToUpper(string(t))
}

func (s *Store) UpsertNode(ctx context.Context, n *model.Node) error {
	query := fmt.Sprintf(driver.UpsertNodeTmpl, typeLabel(n.Type))
	_, err := s.driver.ExecuteQuery(ctx, query, map[string]interface{}{
		"id":    n.ID,
		"props": FlattenNode(n),
	})
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", n.ID, err)
	}
	return nil
}

func (s *Store) UpsertEdge(ctx context.Context, e *model.Edge) error {
	query := fmt.Sprintf(driver.UpsertEdgeTmpl, e.Type.RelName())
	_, err := s.driver.ExecuteQuery(ctx, query, map[string]interface{}{
		"id":        e.ID,
		"source_id": e.SourceID,
		"target_id": e.TargetID,
		"props":     FlattenEdge(e),
	})
	if err != nil {
		return fmt.Errorf("upsert edge %s (%s->%s): %w", e.ID, e.SourceID, e.TargetID, err)
	}
	return nil
}

// UpsertNodesBatch creates nodes of one type in a single round trip, each
// linked to the anchor node by an edge of the given type. nodes[i] pairs
// with edges[i].
func (s *Store) UpsertNodesBatch(ctx context.Context, anchorID string, nodes []*model.Node, edges []*model.Edge) (int64, error) {
	if len(nodes) == 0 {
		return 0, nil
	}
	if len(nodes) != len(edges) {
		return 0, fmt.Errorf("batch mismatch: %d nodes, %d edges", len(nodes), len(edges))
	}

	rows := make([]map[string]interface{}, len(nodes))
	for i, n := range nodes {
		rows[i] = map[string]interface{}{
			"id":         n.ID,
			"props":      FlattenNode(n),
			"edge_id":    edges[i].ID,
			"edge_props": FlattenEdge(edges[i]),
		}
	}

	query := fmt.Sprintf(driver.UpsertNodesBatchTmpl, typeLabel(nodes[0].Type), edges[0].Type.RelName())
	result, err := s.driver.ExecuteQuery(ctx, query, map[string]interface{}{
		"anchor_id": anchorID,
		"rows":      rows,
	})
	if err != nil {
		return 0, fmt.Errorf("batch upsert anchored at %s: %w", anchorID, err)
	}
	return singleCount(result.Records, "created"), nil
}

func (s *Store) FetchNode(ctx context.Context, id string) (*model.Node, error) {
	result, err := s.driver.ExecuteQuery(ctx, driver.FetchNodePropsQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("fetch node %s: %w", id, err)
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("fetch node %s: %w", id, ErrNotFound)
	}
	props, ok := recordMap(result.Records[0], "props")
	if !ok {
		return nil, fmt.Errorf("fetch node %s: malformed record", id)
	}
	return NodeFromProps(props), nil
}

func (s *Store) FetchNodesByType(ctx context.Context, t model.NodeType) ([]*model.Node, error) {
	result, err := s.driver.ExecuteQuery(ctx, driver.FetchNodesByTypeQuery, map[string]interface{}{"type": string(t)})
	if err != nil {
		return nil, fmt.Errorf("fetch nodes of type %s: %w", t, err)
	}
	nodes := make([]*model.Node, 0, len(result.Records))
	for _, rec := range result.Records {
		if props, ok := recordMap(rec, "props"); ok {
			nodes = append(nodes, NodeFromProps(props))
		}
	}
	return nodes, nil
}

func (s *Store) UpdateNodeConfidence(ctx context.Context, id string, c model.ConfidenceVector) error {
	_, err := s.driver.ExecuteQuery(ctx, driver.UpdateNodeConfidenceQuery, map[string]interface{}{
		"id":                   id,
		"empirical_support":    c.EmpiricalSupport,
		"theoretical_basis":    c.TheoreticalBasis,
		"methodological_rigor": c.MethodologicalRigor,
		"consensus_alignment":  c.ConsensusAlignment,
		"updated_at":           time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("update confidence for %s: %w", id, err)
	}
	return nil
}

func (s *Store) PruneLowValueNodes(ctx context.Context, types []model.NodeType, minConfidence, minImpact float64) (int64, error) {
	typeStrings := make([]string, len(types))
	for i, t := range types {
		typeStrings[i] = string(t)
	}
	result, err := s.driver.ExecuteQuery(ctx, driver.PruneLowValueNodesQuery, map[string]interface{}{
		"types":          typeStrings,
		"min_confidence": minConfidence,
		"min_impact":     minImpact,
	})
	if err != nil {
		return 0, fmt.Errorf("prune low-value nodes: %w", err)
	}
	return singleCount(result.Records, "pruned"), nil
}

func (s *Store) PruneIsolatedNodes(ctx context.Context) (int64, error) {
	result, err := s.driver.ExecuteQuery(ctx, driver.PruneIsolatedNodesQuery, nil)
	if err != nil {
		return 0, fmt.Errorf("prune isolated nodes: %w", err)
	}
	return singleCount(result.Records, "pruned"), nil
}

func (s *Store) PruneWeakEdges(ctx context.Context, minConfidence float64) (int64, error) {
	result, err := s.driver.ExecuteQuery(ctx, driver.PruneWeakEdgesQuery, map[string]interface{}{
		"min_confidence": minConfidence,
	})
	if err != nil {
		return 0, fmt.Errorf("prune weak edges: %w", err)
	}
	return singleCount(result.Records, "pruned"), nil
}

func (s *Store) CountNodes(ctx context.Context) (int64, error) {
	result, err := s.driver.ExecuteQuery(ctx, driver.CountNodesQuery, nil)
	if err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return singleCount(result.Records, "total"), nil
}

func (s *Store) CountEdges(ctx context.Context) (int64, error) {
	result, err := s.driver.ExecuteQuery(ctx, driver.CountEdgesQuery, nil)
	if err != nil {
		return 0, fmt.Errorf("count edges: %w", err)
	}
	return singleCount(result.Records, "total"), nil
}

// Neighborhood returns the ids of nodes within depth hops of the given node.
func (s *Store) Neighborhood(ctx context.Context, id string, depth int) ([]string, error) {
	if depth < 1 {
		depth = 1
	}
	query := fmt.Sprintf(driver.NeighborhoodTmpl, depth)
	result, err := s.driver.ExecuteQuery(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("neighborhood of %s: %w", id, err)
	}
	ids := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		if v, ok := rec.Get("id"); ok {
			if str, ok := v.(string); ok {
				ids = append(ids, str)
			}
		}
	}
	return ids, nil
}

// FetchEdgesAmong returns edges whose endpoints both fall inside ids.
func (s *Store) FetchEdgesAmong(ctx context.Context, ids []string) ([]*model.Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := s.driver.ExecuteQuery(ctx, driver.FetchEdgesAmongNodesQuery, map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("fetch edges among nodes: %w", err)
	}
	edges := make([]*model.Edge, 0, len(result.Records))
	for _, rec := range result.Records {
		e := &model.Edge{}
		if v, ok := rec.Get("id"); ok {
			e.ID, _ = v.(string)
		}
		if v, ok := rec.Get("source_id"); ok {
			e.SourceID, _ = v.(string)
		}
		if v, ok := rec.Get("target_id"); ok {
			e.TargetID, _ = v.(string)
		}
		if v, ok := rec.Get("rel_type"); ok {
			if rel, ok := v.(string); ok {
				e.Type = model.EdgeType(strings.ToLower(rel))
			}
		}
		if v, ok := rec.Get("confidence"); ok {
			e.Confidence = asFloat(v, 1.0)
		}
		edges = append(edges, e)
	}
	return edges, nil
}
