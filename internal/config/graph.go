package config

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// InitGraph connects to neo4j and verifies the connection.
func InitGraph(ctx context.Context, s *Settings) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(s.Neo4jURI, neo4j.BasicAuth(s.Neo4jUser, s.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("could not create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify connection: %w", err)
	}

	return driver, nil
}
