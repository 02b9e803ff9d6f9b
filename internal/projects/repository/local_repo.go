package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/playforge-dev/playforge-backend/internal/projects/codec"
	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

// LocalProjectRepository is the tier-2 durable backstop: a SQLite
// database keyed by project id. Every save must land here before the
// facade reports success, even when the remote store is unreachable.
type LocalProjectRepository struct {
	db *sql.DB
}

// OpenLocal opens (or creates) the SQLite file at path and ensures
// the schema exists.
func OpenLocal(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	status        TEXT NOT NULL,
	payload       TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	last_modified TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_last_modified ON projects (last_modified DESC);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local store schema: %w", err)
	}

	return db, nil
}

func NewLocalProjectRepository(db *sql.DB) *LocalProjectRepository {
	return &LocalProjectRepository{db: db}
}

// Get returns the stored project, or nil when absent.
func (r *LocalProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	const q = `SELECT payload FROM projects WHERE id = ?;`

	var payload []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("local get %s: %w", id, err)
	}

	return codec.Decode(payload)
}

// Put stores a full-document overwrite for the project. Timestamps go
// in as RFC3339 text so the column sorts lexicographically by time.
func (r *LocalProjectRepository) Put(ctx context.Context, p *domain.Project) error {
	payload, err := codec.Encode(p)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO projects (id, name, status, payload, created_at, last_modified)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	name = excluded.name,
	status = excluded.status,
	payload = excluded.payload,
	last_modified = excluded.last_modified;
`
	_, err = r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Status, payload,
		rfc3339(p.CreatedAt), rfc3339(p.LastModified))
	if err != nil {
		return fmt.Errorf("local put %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes the project. Deleting an absent id is not an error.
func (r *LocalProjectRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM projects WHERE id = ?;`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("local delete %s: %w", id, err)
	}
	return nil
}

// ListAll returns every stored project, most recently modified first.
func (r *LocalProjectRepository) ListAll(ctx context.Context) ([]*domain.Project, error) {
	const q = `SELECT payload FROM projects ORDER BY last_modified DESC;`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("local list: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Project, 0, 16)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		p, err := codec.Decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
