package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/salmonumbrella/braindump/internal/record"
)

// BatchBuilder constructs a batch of record writes that can reference each other via tempids.
// Tempids are negative integers that act as placeholders for document IDs.
type BatchBuilder struct {
	writes     []map[string]interface{}
	nextTempID int
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		writes:     make([]map[string]interface{}, 0),
		nextTempID: -1,
	}
}

// allocateTempID returns the next available tempid and decrements the counter.
func (b *BatchBuilder) allocateTempID() int {
	id := b.nextTempID
	b.nextTempID--
	return id
}

// CreateRecord adds a create write and returns its tempid reference.
// in.Parent may be a real ID or a tempid returned earlier by this builder.
func (b *BatchBuilder) CreateRecord(in record.Input) string {
	tempID := b.allocateTempID()

	fields := in.ToMap()
	if in.Parent != "" {
		fields["parent"] = b.parseID(in.Parent)
	}

	b.writes = append(b.writes, map[string]interface{}{
		"op":     "create",
		"tempid": tempID,
		"fields": fields,
	})
	return strconv.Itoa(tempID)
}

// Len returns the number of queued writes.
func (b *BatchBuilder) Len() int {
	return len(b.writes)
}

// Build returns the writes as a slice ready for the batch endpoint.
func (b *BatchBuilder) Build() []map[string]interface{} {
	return b.writes
}

// parseID converts a string reference to the appropriate type.
// Tempid strings like "-1" become integers, real IDs stay as strings.
func (b *BatchBuilder) parseID(id string) interface{} {
	if n, err := strconv.Atoi(id); err == nil && n < 0 {
		return n
	}
	return id
}

// ExecuteBatch applies all writes atomically and returns the tempid to document ID map.
func (c *Client) ExecuteBatch(ctx context.Context, batch *BatchBuilder) (map[string]string, error) {
	if batch == nil || batch.Len() == 0 {
		return map[string]string{}, nil
	}

	resp, err := c.callWithRetry(ctx, http.MethodPost, c.documentsPath()+":batch", map[string]interface{}{
		"writes": batch.Build(),
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		TempIDs map[string]string `json:"tempids"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse batch result: %w", err)
	}
	if len(result.TempIDs) != batch.Len() {
		return result.TempIDs, fmt.Errorf("batch result resolved %d of %d tempids", len(result.TempIDs), batch.Len())
	}
	return result.TempIDs, nil
}
