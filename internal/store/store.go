// Package store persists records. Backends are sqlite (local file), neo4j and
// the hosted document API.
package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/salmonumbrella/braindump/internal/record"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
	BackendAPI    = "api"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

var (
	// ErrNotFound is returned when a record ID does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrParentNotFound is returned when creating a record under an unknown parent.
	ErrParentNotFound = errors.New("parent record not found")
)

// ListOptions filters List. An empty Parent lists every record.
type ListOptions struct {
	Parent string
	Limit  int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store is a record backend.
type Store interface {
	Create(ctx context.Context, in record.Input) (string, error)
	Get(ctx context.Context, id string) (*record.Record, error)
	List(ctx context.Context, opts ListOptions) ([]record.Record, error)
	Close() error
}

// IDGenerator returns a fresh record ID.
type IDGenerator func() string

// NewULIDGenerator returns a generator of monotonic ULIDs. Safe for concurrent use.
func NewULIDGenerator() IDGenerator {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}

// NewUUIDGenerator returns a generator of random UUIDs.
func NewUUIDGenerator() IDGenerator {
	return func() string {
		return uuid.New().String()
	}
}

// IDGeneratorFor maps a config value ("ulid", "uuid") to a generator.
func IDGeneratorFor(name string) (IDGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ulid":
		return NewULIDGenerator(), nil
	case "uuid":
		return NewUUIDGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown id generator %q (use ulid or uuid)", name)
	}
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	IDs     string

	// sqlite
	Dir string

	// neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// api
	API APIClient
}

// Open builds the backend named by cfg.Backend (sqlite when empty).
func Open(ctx context.Context, cfg Config) (Store, error) {
	ids, err := IDGeneratorFor(cfg.IDs)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendSQLite:
		if cfg.Dir == "" {
			return nil, errors.New("sqlite backend requires a data directory")
		}
		return OpenSQLite(cfg.Dir, ids)
	case BackendNeo4j:
		return OpenNeo4j(ctx, Neo4jConfig{
			URI:      cfg.Neo4jURI,
			User:     cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		}, ids)
	case BackendAPI:
		if cfg.API == nil {
			return nil, errors.New("api backend requires an API token (run: braindump auth login)")
		}
		return NewAPIStore(cfg.API), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (use sqlite, neo4j or api)", cfg.Backend)
	}
}

// closeQuietly is used on error paths where the original error wins.
func closeQuietly(c io.Closer) {
	_ = c.Close()
}
