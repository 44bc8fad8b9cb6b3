package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MockDriver struct {
	Queries     []string
	ParamsLog   []map[string]interface{}
	ResultQueue []neo4j.EagerResult
	Err         error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	m.ParamsLog = append(m.ParamsLog, params)
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	if len(m.ResultQueue) > 0 {
		result := m.ResultQueue[0]
		m.ResultQueue = m.ResultQueue[1:]
		return result, nil
	}
	return neo4j.EagerResult{}, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

func countResult(key string, n int64) neo4j.EagerResult {
	return neo4j.EagerResult{
		Records: []*neo4j.Record{
			{Keys: []string{key}, Values: []interface{}{n}},
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
