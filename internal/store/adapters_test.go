package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/record"
)

type fakeAPI struct {
	createErr error
	getErr    error
	lastLimit int
}

func (f *fakeAPI) CreateRecord(_ context.Context, in record.Input) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "remote-" + in.Title, nil
}

func (f *fakeAPI) GetRecord(_ context.Context, id string) (*record.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &record.Record{ID: id}, nil
}

func (f *fakeAPI) ListRecords(_ context.Context, _ string, limit int) ([]record.Record, error) {
	f.lastLimit = limit
	return []record.Record{}, nil
}

func TestAPIStore(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAPI{}
	s := NewAPIStore(fake)

	id, err := s.Create(ctx, record.Input{Title: "a"})
	require.NoError(t, err)
	assert.Equal(t, "remote-a", id)

	_, err = s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, fake.lastLimit)

	fake.getErr = api.NotFoundError{Message: "gone"}
	_, err = s.Get(ctx, "x")
	assert.True(t, errors.Is(err, ErrNotFound))

	fake.createErr = api.NotFoundError{Message: "parent gone"}
	_, err = s.Create(ctx, record.Input{Title: "b", Parent: "p"})
	assert.True(t, errors.Is(err, ErrParentNotFound))

	fake.createErr = api.ValidationError{Message: "bad"}
	_, err = s.Create(ctx, record.Input{Title: "c"})
	var validation api.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestRecordFromValues(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	rec, err := recordFromValues([]any{
		"id-1", nil, "Title", "Desc", "task", []any{"a", "b"}, int64(3), int64(9), created.UnixMilli(),
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", rec.ID)
	assert.Empty(t, rec.Parent)
	assert.Equal(t, []string{"a", "b"}, rec.Tags)
	assert.Equal(t, 3, rec.Urgency)
	assert.Equal(t, 9, rec.Importance)
	assert.True(t, rec.CreatedAt.Equal(created))
	assert.Equal(t, record.QuadrantSchedule, rec.Quadrant())

	_, err = recordFromValues([]any{"short"})
	assert.Error(t, err)
}
