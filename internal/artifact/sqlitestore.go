package artifact

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/framehaus/siteforge/internal/engine"
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	key        TEXT NOT NULL,
	class      TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_key ON artifacts(key);
`

// SQLiteStore persists artifacts in a local SQLite database so a run's
// outputs survive the process.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the database at path, creating it and the schema if
// needed.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("artifact: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("artifact: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save encodes value as JSON and inserts it under a fresh reference.
func (s *SQLiteStore) Save(ctx context.Context, key string, class engine.PriorityClass, value any) (string, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("artifact: encode payload for %s: %w", key, err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, key, class, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, key, string(class), payload, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("artifact: insert %s: %w", key, err)
	}
	return id, nil
}

// Get returns the artifact stored under ref.
func (s *SQLiteStore) Get(ctx context.Context, ref string) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, key, class, payload, created_at FROM artifacts WHERE id = ?`, ref)

	art, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact: get %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: get %s: %w", ref, err)
	}
	return art, nil
}

// ListByKey returns every artifact saved for key, oldest first.
func (s *SQLiteStore) ListByKey(ctx context.Context, key string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, class, payload, created_at FROM artifacts WHERE key = ? ORDER BY rowid`, key)
	if err != nil {
		return nil, fmt.Errorf("artifact: list %s: %w", key, err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		art, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("artifact: list %s: %w", key, err)
		}
		out = append(out, *art)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("artifact: list %s: %w", key, err)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(sc scanner) (*Artifact, error) {
	var art Artifact
	var class string
	if err := sc.Scan(&art.ID, &art.Key, &class, &art.Payload, &art.CreatedAt); err != nil {
		return nil, err
	}
	art.Class = engine.PriorityClass(class)
	return &art, nil
}
