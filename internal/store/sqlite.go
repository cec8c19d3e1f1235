package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/salmonumbrella/braindump/internal/record"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// DBFileName is the database file created inside the data directory.
const DBFileName = "braindump.db"

// SQLiteStore keeps records in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	ids IDGenerator
	now func() time.Time
}

// OpenSQLite opens (or creates) baseDir/braindump.db and migrates it.
// The baseDir parameter allows tests to use t.TempDir().
func OpenSQLite(baseDir string, ids IDGenerator) (*SQLiteStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0o700)

	// Pragmas in the DSN apply to every pooled connection.
	dbPath := filepath.Join(baseDir, DBFileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		closeQuietly(db)
		return nil, err
	}
	if err := migrate(db); err != nil {
		closeQuietly(db)
		return nil, err
	}
	_ = os.Chmod(dbPath, 0o600)

	if ids == nil {
		ids = NewULIDGenerator()
	}
	return &SQLiteStore{db: db, ids: ids, now: time.Now}, nil
}

// DB exposes the underlying handle for diagnostics and tests.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS records (
		  id          TEXT PRIMARY KEY,
		  parent_id   TEXT REFERENCES records(id),
		  title       TEXT NOT NULL,
		  description TEXT NOT NULL,
		  type        TEXT NOT NULL,
		  tags_json   TEXT NOT NULL,
		  urgency     INTEGER NOT NULL,
		  importance  INTEGER NOT NULL,
		  created_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_parent
		ON records(parent_id, created_at);

		CREATE INDEX IF NOT EXISTS idx_records_created
		ON records(created_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// Create inserts a record. The parent, when set, must already exist.
func (s *SQLiteStore) Create(ctx context.Context, in record.Input) (string, error) {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var parent sql.NullString
	if in.Parent != "" {
		var found string
		err := tx.QueryRowContext(ctx, "SELECT id FROM records WHERE id = ?", in.Parent).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrParentNotFound, in.Parent)
		}
		if err != nil {
			return "", fmt.Errorf("failed to look up parent: %w", err)
		}
		parent = sql.NullString{String: in.Parent, Valid: true}
	}

	id := s.ids()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, parent_id, title, description, type, tags_json, urgency, importance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, parent, in.Title, in.Description, in.Type, string(tagsJSON), in.Urgency, in.Importance, s.now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit record: %w", err)
	}
	return id, nil
}

const selectRecord = `SELECT id, parent_id, title, description, type, tags_json, urgency, importance, created_at FROM records`

// Get returns one record or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*record.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records in creation order, optionally under one parent.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]record.Record, error) {
	query := selectRecord
	args := []interface{}{}
	if opts.Parent != "" {
		query += " WHERE parent_id = ?"
		args = append(args, opts.Parent)
	}
	query += " ORDER BY created_at, rowid LIMIT ?"
	args = append(args, opts.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	out := []record.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*record.Record, error) {
	var (
		rec       record.Record
		parent    sql.NullString
		tagsJSON  string
		createdAt int64
	)
	err := row.Scan(&rec.ID, &parent, &rec.Title, &rec.Description, &rec.Type, &tagsJSON, &rec.Urgency, &rec.Importance, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Parent = parent.String
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", rec.ID, err)
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rec, nil
}
