package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/config"
	"github.com/nexusmind/nexusmind/internal/graph"
)

// fakeDriver keeps nodes and edges in memory and answers the store's Cypher
// by routing on the query shape. Filtering for subgraph queries is
// approximate but honors the parameters the store sends.
type fakeDriver struct {
	nodes map[string]map[string]interface{}
	order []string
	edges []map[string]interface{}
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{nodes: make(map[string]map[string]interface{})}
}

func (f *fakeDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	switch {
	case strings.Contains(query, "UNWIND $rows"):
		anchorID, _ := params["anchor_id"].(string)
		rows, _ := params["rows"].([]map[string]interface{})
		for _, row := range rows {
			id, _ := row["id"].(string)
			props, _ := row["props"].(map[string]interface{})
			f.putNode(id, props)
			edgeProps, _ := row["edge_props"].(map[string]interface{})
			f.putEdge(id, anchorID, edgeProps)
		}
		return singleValue("created", int64(len(rows))), nil

	case strings.Contains(query, "MERGE (n:Node {id: $id})"):
		id, _ := params["id"].(string)
		props, _ := params["props"].(map[string]interface{})
		f.putNode(id, props)
		return singleValue("id", id), nil

	case strings.Contains(query, "MERGE (source)-[r:"):
		src, _ := params["source_id"].(string)
		dst, _ := params["target_id"].(string)
		props, _ := params["props"].(map[string]interface{})
		f.putEdge(src, dst, props)
		return singleValue("id", params["id"]), nil

	case strings.Contains(query, "{id: $id}") && strings.Contains(query, "properties(n)"):
		id, _ := params["id"].(string)
		props, ok := f.nodes[id]
		if !ok {
			return neo4j.EagerResult{}, nil
		}
		return propsResult(props), nil

	case strings.Contains(query, "{type: $type}"):
		t, _ := params["type"].(string)
		var matched []map[string]interface{}
		for _, id := range f.sortedIDs() {
			if f.nodes[id]["type"] == t {
				matched = append(matched, f.nodes[id])
			}
		}
		return propsResult(matched...), nil

	case strings.Contains(query, "SET n.confidence_empirical_support"):
		id, _ := params["id"].(string)
		if props, ok := f.nodes[id]; ok {
			props["confidence_empirical_support"] = params["empirical_support"]
			props["confidence_theoretical_basis"] = params["theoretical_basis"]
			props["confidence_methodological_rigor"] = params["methodological_rigor"]
			props["confidence_consensus_alignment"] = params["consensus_alignment"]
		}
		return singleValue("id", id), nil

	case strings.Contains(query, "AS pruned"):
		return singleValue("pruned", int64(0)), nil

	case strings.Contains(query, "RETURN count(n) AS total"):
		return singleValue("total", int64(len(f.nodes))), nil

	case strings.Contains(query, "RETURN count(r) AS total"):
		return singleValue("total", int64(len(f.edges))), nil

	case strings.Contains(query, "[*1.."):
		return neo4j.EagerResult{}, nil

	case strings.Contains(query, "a.id IN $ids"):
		return f.edgesAmong(params), nil

	case strings.Contains(query, "RETURN properties(n) AS props"):
		return f.filteredNodes(params), nil
	}

	return neo4j.EagerResult{}, errors.New("fakeDriver: unrecognized query: " + query)
}

func (f *fakeDriver) BuildIndices(ctx context.Context) error { return nil }
func (f *fakeDriver) Close(ctx context.Context) error        { return nil }

func (f *fakeDriver) putNode(id string, props map[string]interface{}) {
	if _, exists := f.nodes[id]; !exists {
		f.order = append(f.order, id)
	}
	f.nodes[id] = props
}

func (f *fakeDriver) putEdge(sourceID, targetID string, props map[string]interface{}) {
	entry := map[string]interface{}{"source_id": sourceID, "target_id": targetID}
	for k, v := range props {
		entry[k] = v
	}
	f.edges = append(f.edges, entry)
}

func (f *fakeDriver) sortedIDs() []string {
	ids := append([]string(nil), f.order...)
	sort.Strings(ids)
	return ids
}

func (f *fakeDriver) filteredNodes(params map[string]interface{}) neo4j.EagerResult {
	var matched []map[string]interface{}
	for _, id := range f.sortedIDs() {
		props := f.nodes[id]
		if !nodeMatches(props, params) {
			continue
		}
		matched = append(matched, props)
	}
	return propsResult(matched...)
}

func nodeMatches(props, params map[string]interface{}) bool {
	if min, ok := params["min_avg_confidence"].(float64); ok {
		avg := (num(props["confidence_empirical_support"]) +
			num(props["confidence_theoretical_basis"]) +
			num(props["confidence_methodological_rigor"]) +
			num(props["confidence_consensus_alignment"])) / 4.0
		if avg < min {
			return false
		}
	}
	if min, ok := params["min_impact"].(float64); ok {
		if num(props["metadata_impact_score"]) < min {
			return false
		}
	}
	if types, ok := params["node_types"].([]string); ok {
		found := false
		for _, t := range types {
			if props["type"] == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if gap, ok := params["is_knowledge_gap"].(bool); ok {
		v, _ := props["metadata_is_knowledge_gap"].(bool)
		if v != gap {
			return false
		}
	}
	return true
}

func (f *fakeDriver) edgesAmong(params map[string]interface{}) neo4j.EagerResult {
	ids, _ := params["ids"].([]string)
	inSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		inSet[id] = true
	}
	var records []*neo4j.Record
	for _, e := range f.edges {
		src, _ := e["source_id"].(string)
		dst, _ := e["target_id"].(string)
		if !inSet[src] || !inSet[dst] {
			continue
		}
		rel, _ := e["type"].(string)
		records = append(records, &neo4j.Record{
			Keys:   []string{"id", "source_id", "target_id", "rel_type", "confidence"},
			Values: []interface{}{e["id"], src, dst, strings.ToUpper(rel), num(e["confidence"])},
		})
	}
	return neo4j.EagerResult{Records: records}
}

func num(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func singleValue(key string, v interface{}) neo4j.EagerResult {
	return neo4j.EagerResult{
		Records: []*neo4j.Record{
			{Keys: []string{key}, Values: []interface{}{v}},
		},
	}
}

func propsResult(propMaps ...map[string]interface{}) neo4j.EagerResult {
	records := make([]*neo4j.Record, len(propMaps))
	for i, props := range propMaps {
		records[i] = &neo4j.Record{Keys: []string{"props"}, Values: []interface{}{props}}
	}
	return neo4j.EagerResult{Records: records}
}

// MockLLM pops canned responses off a queue.
type MockLLM struct {
	ResponseQueue []string
	Prompts       []string
	Err           error
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) == 0 {
		return "", errors.New("mock llm: response queue empty")
	}
	resp := m.ResponseQueue[0]
	m.ResponseQueue = m.ResponseQueue[1:]
	return resp, nil
}

// MockEmbedder returns a fixed vector per text, defaulting to a unit vector.
type MockEmbedder struct {
	Vectors map[string][]float32
	Err     error
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func newTestDeps(d *fakeDriver) *Deps {
	deps := NewDeps(graph.NewStore(d, zap.NewNop()), nil, nil, nil,
		config.Default().Parameters, zap.NewNop())
	deps.Rand = rand.New(rand.NewSource(42))
	return deps
}
