package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/salmonumbrella/braindump/internal/record"
)

// DefaultNeo4jURI is used when no URI is configured.
const DefaultNeo4jURI = "neo4j://localhost:7687"

// Neo4jConfig holds connection settings for the graph backend.
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
}

// Neo4jStore keeps records as (:Record) nodes linked child-to-parent by HAS_PARENT.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	ids      IDGenerator
	now      func() time.Time
}

// OpenNeo4j connects to the graph and verifies connectivity.
func OpenNeo4j(ctx context.Context, cfg Neo4jConfig, ids IDGenerator) (*Neo4jStore, error) {
	uri := cfg.URI
	if uri == "" {
		uri = DefaultNeo4jURI
	}
	user := cfg.User
	if user == "" {
		user = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
	}

	if ids == nil {
		ids = NewULIDGenerator()
	}
	return &Neo4jStore{driver: driver, database: cfg.Database, ids: ids, now: time.Now}, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

const (
	createRootCypher = "CREATE (r:Record {id: $id, title: $title, description: $description, type: $type, " +
		"tags: $tags, urgency: $urgency, importance: $importance, created_at: $created_at}) RETURN r.id"
	createChildCypher = "MATCH (p:Record {id: $parent}) " +
		"CREATE (r:Record {id: $id, title: $title, description: $description, type: $type, " +
		"tags: $tags, urgency: $urgency, importance: $importance, created_at: $created_at})-[:HAS_PARENT]->(p) " +
		"RETURN r.id"
	returnRecordCypher = "OPTIONAL MATCH (r)-[:HAS_PARENT]->(p:Record) " +
		"RETURN r.id, p.id, r.title, r.description, r.type, r.tags, r.urgency, r.importance, r.created_at"
)

// Create writes the node and its parent edge in one transaction.
func (s *Neo4jStore) Create(ctx context.Context, in record.Input) (string, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	params := map[string]any{
		"id":          s.ids(),
		"title":       in.Title,
		"description": in.Description,
		"type":        in.Type,
		"tags":        tags,
		"urgency":     int64(in.Urgency),
		"importance":  int64(in.Importance),
		"created_at":  s.now().UnixMilli(),
	}
	cypher := createRootCypher
	if in.Parent != "" {
		cypher = createChildCypher
		params["parent"] = in.Parent
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrParentNotFound, in.Parent)
		}
		id, _ := res.Record().Values[0].(string)
		return id, nil
	})
	if err != nil {
		if errors.Is(err, ErrParentNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to create record: %w", err)
	}
	return result.(string), nil
}

// Get returns one record or ErrNotFound.
func (s *Neo4jStore) Get(ctx context.Context, id string) (*record.Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (r:Record {id: $id}) "+returnRecordCypher, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, ErrNotFound
		}
		return recordFromValues(res.Record().Values)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	rec := result.(record.Record)
	return &rec, nil
}

// List returns records in creation order, optionally under one parent.
func (s *Neo4jStore) List(ctx context.Context, opts ListOptions) ([]record.Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	cypher := "MATCH (r:Record) "
	params := map[string]any{"limit": int64(opts.limit())}
	if opts.Parent != "" {
		cypher = "MATCH (r:Record)-[:HAS_PARENT]->(:Record {id: $parent}) "
		params["parent"] = opts.Parent
	}
	cypher += "WITH r ORDER BY r.created_at, r.id LIMIT $limit " + returnRecordCypher

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		out := []record.Record{}
		for res.Next(ctx) {
			rec, err := recordFromValues(res.Record().Values)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return result.([]record.Record), nil
}

// Close closes the driver.
func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

// recordFromValues converts a row in returnRecordCypher column order.
func recordFromValues(values []any) (record.Record, error) {
	if len(values) < 9 {
		return record.Record{}, fmt.Errorf("unexpected record row with %d columns", len(values))
	}
	var rec record.Record
	rec.ID, _ = values[0].(string)
	rec.Parent, _ = values[1].(string)
	rec.Title, _ = values[2].(string)
	rec.Description, _ = values[3].(string)
	rec.Type, _ = values[4].(string)

	rec.Tags = []string{}
	if raw, ok := values[5].([]any); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				rec.Tags = append(rec.Tags, s)
			}
		}
	}
	rec.Urgency = int(asInt64(values[6]))
	rec.Importance = int(asInt64(values[7]))
	rec.CreatedAt = time.UnixMilli(asInt64(values[8])).UTC()
	return rec, nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
