package api

import (
	"context"

	"github.com/salmonumbrella/braindump/internal/record"
)

// RecordAPI is the document API surface used by the CLI and the api store backend.
// Client implements it; tests substitute fakes.
type RecordAPI interface {
	// CreateRecord stores one record and returns its ID.
	// It is retried only on rate limits, never on other failures.
	CreateRecord(ctx context.Context, in record.Input) (string, error)

	// GetRecord fetches one record, returning NotFoundError for unknown IDs.
	GetRecord(ctx context.Context, id string) (*record.Record, error)

	// ListRecords lists records, optionally under one parent.
	ListRecords(ctx context.Context, parent string, limit int) ([]record.Record, error)

	// ExecuteBatch applies the writes atomically and returns the tempid map.
	ExecuteBatch(ctx context.Context, batch *BatchBuilder) (map[string]string, error)

	// Ping verifies the token.
	Ping(ctx context.Context) error

	// Collection returns the collection this API writes to.
	Collection() string
}

var _ RecordAPI = (*Client)(nil)
