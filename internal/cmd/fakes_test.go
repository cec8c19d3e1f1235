package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/record"
	"github.com/salmonumbrella/braindump/internal/secrets"
)

type fakeSecrets struct {
	tokens map[string]secrets.Token
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{tokens: map[string]secrets.Token{}}
}

func (f *fakeSecrets) Keys() ([]string, error) {
	keys := make([]string, 0, len(f.tokens))
	for k := range f.tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeSecrets) SetToken(name string, tok secrets.Token) error {
	f.tokens[name] = tok
	return nil
}

func (f *fakeSecrets) GetToken(name string) (secrets.Token, error) {
	tok, ok := f.tokens[name]
	if !ok {
		return secrets.Token{}, fmt.Errorf("%w: %s", secrets.ErrNotFound, name)
	}
	return tok, nil
}

func (f *fakeSecrets) DeleteToken(name string) error {
	if _, ok := f.tokens[name]; !ok {
		return fmt.Errorf("%w: %s", secrets.ErrNotFound, name)
	}
	delete(f.tokens, name)
	return nil
}

// fakeAPI records calls and maps batch tempids to doc-N IDs.
type fakeAPI struct {
	collection string
	token      string
	batches    []*api.BatchBuilder
	batchErr   error
	pingErr    error
	pinged     bool
}

func (f *fakeAPI) CreateRecord(ctx context.Context, in record.Input) (string, error) {
	return "", fmt.Errorf("unexpected CreateRecord(%q)", in.Title)
}

func (f *fakeAPI) GetRecord(ctx context.Context, id string) (*record.Record, error) {
	return nil, api.NotFoundError{Message: "record not found: " + id}
}

func (f *fakeAPI) ListRecords(ctx context.Context, parent string, limit int) ([]record.Record, error) {
	return []record.Record{}, nil
}

func (f *fakeAPI) ExecuteBatch(ctx context.Context, batch *api.BatchBuilder) (map[string]string, error) {
	f.batches = append(f.batches, batch)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	ids := make(map[string]string, batch.Len())
	for i := 1; i <= batch.Len(); i++ {
		ids[strconv.Itoa(-i)] = fmt.Sprintf("doc-%d", i)
	}
	return ids, nil
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	f.pinged = true
	return f.pingErr
}

func (f *fakeAPI) Collection() string { return f.collection }

type stubEnhancer struct {
	tags []string
}

func (s stubEnhancer) Enhance(ctx context.Context, text string) (*record.Enhancement, error) {
	return &record.Enhancement{Tags: s.tags}, nil
}
