package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/record"
)

// APIClient is the part of the document API the store needs.
type APIClient interface {
	CreateRecord(ctx context.Context, in record.Input) (string, error)
	GetRecord(ctx context.Context, id string) (*record.Record, error)
	ListRecords(ctx context.Context, parent string, limit int) ([]record.Record, error)
}

// APIStore stores records in the hosted document API. IDs are assigned remotely.
type APIStore struct {
	client APIClient
}

// NewAPIStore wraps a document API client.
func NewAPIStore(client APIClient) *APIStore {
	return &APIStore{client: client}
}

// Create stores one record remotely.
func (s *APIStore) Create(ctx context.Context, in record.Input) (string, error) {
	id, err := s.client.CreateRecord(ctx, in)
	if err != nil {
		var notFound api.NotFoundError
		if in.Parent != "" && errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrParentNotFound, in.Parent)
		}
		return "", err
	}
	return id, nil
}

// Get fetches one record, mapping the API's not-found error to ErrNotFound.
func (s *APIStore) Get(ctx context.Context, id string) (*record.Record, error) {
	rec, err := s.client.GetRecord(ctx, id)
	if err != nil {
		var notFound api.NotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List lists records remotely.
func (s *APIStore) List(ctx context.Context, opts ListOptions) ([]record.Record, error) {
	return s.client.ListRecords(ctx, opts.Parent, opts.limit())
}

// Close is a no-op; the HTTP client holds no resources.
func (s *APIStore) Close() error {
	return nil
}
