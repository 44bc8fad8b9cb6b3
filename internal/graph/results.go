package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func recordMap(rec *neo4j.Record, key string) (map[string]interface{}, bool) {
	v, ok := rec.Get(key)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

func singleCount(records []*neo4j.Record, key string) int64 {
	if len(records) == 0 {
		return 0
	}
	v, ok := records[0].Get(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
