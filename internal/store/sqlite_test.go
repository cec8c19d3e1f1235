package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/braindump/internal/materialize"
	"github.com/salmonumbrella/braindump/internal/outline"
	"github.com/salmonumbrella/braindump/internal/record"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := OpenSQLite(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, DBFileName))
	require.NoError(t, err)

	var journalMode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode;").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	version, err := GetUserVersion(s.DB())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenSQLite(dir, nil)
	require.NoError(t, err)
	id, err := s.Create(ctx, record.Input{Title: "persisted", Type: record.TypeTask, Urgency: 5, Importance: 5})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "persisted", rec.Title)
}

func TestSQLiteCreateGet(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	id, err := s.Create(ctx, record.Input{
		Title:       "Review budget",
		Description: "Review budget for Q3",
		Type:        record.TypeTask,
		Tags:        []string{"finance"},
		Urgency:     7,
		Importance:  9,
	})
	require.NoError(t, err)
	require.Len(t, id, 26, "expected a ULID")

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Review budget for Q3", rec.Description)
	assert.Equal(t, []string{"finance"}, rec.Tags)
	assert.Equal(t, 7, rec.Urgency)
	assert.Equal(t, record.QuadrantDo, rec.Quadrant())
	assert.Empty(t, rec.Parent)
	assert.False(t, rec.CreatedAt.IsZero())

	_, err = s.Get(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteMissingParent(t *testing.T) {
	s := openTestSQLite(t)

	_, err := s.Create(context.Background(), record.Input{Title: "orphan", Parent: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParentNotFound))
}

func TestSQLiteMaterializeParentLinks(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	forest := outline.Parse("Prepare for work trip\n  Pack clothes\n  Arrange childcare\nReview budget\n")
	res, err := materialize.New(s.Create).Run(ctx, forest, "")
	require.NoError(t, err)
	require.Equal(t, 4, res.Created)

	all, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)

	trip := res.Records[0]
	assert.Equal(t, "Prepare for work trip", trip.Title)
	assert.Equal(t, record.TypeProject, trip.Type)

	children, err := s.List(ctx, ListOptions{Parent: trip.ID})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Pack clothes", children[0].Title)
	assert.Equal(t, "Arrange childcare", children[1].Title)

	limited, err := s.List(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteUUIDGenerator(t *testing.T) {
	s, err := OpenSQLite(t.TempDir(), NewUUIDGenerator())
	require.NoError(t, err)
	defer s.Close()

	id, err := s.Create(context.Background(), record.Input{Title: "x"})
	require.NoError(t, err)
	assert.Len(t, id, 36)
}

func TestIDGeneratorFor(t *testing.T) {
	gen, err := IDGeneratorFor("")
	require.NoError(t, err)
	a, b := gen(), gen()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "ulids should sort in creation order")

	_, err = IDGeneratorFor("snowflake")
	assert.Error(t, err)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "mongo"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Backend: BackendAPI})
	assert.Error(t, err)
}
