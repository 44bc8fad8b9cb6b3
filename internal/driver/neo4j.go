package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

type Neo4jDriver struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *zap.Logger
}

func NewNeo4jDriver(uri, username, password, database string, log *zap.Logger) (*Neo4jDriver, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := d.VerifyConnectivity(context.Background()); err != nil {
		return nil, fmt.Errorf("neo4j connectivity check failed: %w", err)
	}

	log.Info("connected to Neo4j", zap.String("uri", uri), zap.String("database", database))
	return &Neo4jDriver{Driver: d, Database: database, log: log}, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(d.Database))
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE CONSTRAINT node_id_unique IF NOT EXISTS FOR (n:Node) REQUIRE n.id IS UNIQUE",
		"CREATE INDEX node_type_idx IF NOT EXISTS FOR (n:Node) ON (n.type)",
		"CREATE INDEX node_layer_idx IF NOT EXISTS FOR (n:Node) ON (n.metadata_layer_id)",
		"CREATE INDEX node_impact_idx IF NOT EXISTS FOR (n:Node) ON (n.metadata_impact_score)",
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Index may already exist or the server may predate IF NOT EXISTS.
			d.log.Warn("index creation failed", zap.String("query", q), zap.Error(err))
		}
	}

	return nil
}
