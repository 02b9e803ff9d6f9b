package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/time/rate"

	"github.com/playforge-dev/playforge-backend/internal/projects/codec"
	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

// RemoteProjectRepository is the tier-3 authoritative store: project
// records in Postgres keyed by an opaque record id. The project id is
// embedded in the record, never used as the primary key; the unique
// (owner_id, project_id) index keeps one record per owner per project.
type RemoteProjectRepository struct {
	db      *sql.DB
	limiter *rate.Limiter
}

// NewRemoteProjectRepository creates the repository. writesPerSec
// bounds sync traffic toward the remote database; zero disables
// limiting.
func NewRemoteProjectRepository(db *sql.DB, writesPerSec float64) *RemoteProjectRepository {
	var limiter *rate.Limiter
	if writesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(writesPerSec), int(writesPerSec)+1)
	}
	return &RemoteProjectRepository{db: db, limiter: limiter}
}

// EnsureSchema creates the remote tables when they do not exist yet.
func (r *RemoteProjectRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS remote_projects (
	record_id  TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	project_id TEXT NOT NULL,
	payload    JSONB NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (owner_id, project_id)
);
CREATE INDEX IF NOT EXISTS idx_remote_projects_owner ON remote_projects (owner_id);
`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init remote schema: %w", err)
	}
	return nil
}

// Save inserts a new record and returns its freshly generated opaque
// record id. A primary-key collision retries with a new id; any other
// unique violation means the owner already has a record for this
// project and is surfaced as a remote persistence error.
func (r *RemoteProjectRepository) Save(ctx context.Context, rec *domain.RemoteRecord) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}

	payload, err := codec.Encode(rec.Project)
	if err != nil {
		return "", err
	}

	for i := 0; i < 5; i++ {
		recordID := uuid.New().String()

		const q = `
INSERT INTO remote_projects (record_id, owner_id, project_id, payload, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING record_id;
`
		var got string
		err = r.db.QueryRowContext(ctx, q,
			recordID, rec.OwnerID, rec.ProjectID, payload, rfc3339(rec.UpdatedAt)).
			Scan(&got)

		if err == nil {
			return got, nil
		}

		// unique violation on record_id → retry with a new id
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.Constraint == "remote_projects_pkey" {
				continue
			}
			return "", fmt.Errorf("%w: owner %s already has a record for project %s",
				domain.ErrRemotePersistence, rec.OwnerID, rec.ProjectID)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}

	return "", fmt.Errorf("%w: failed to generate unique record id", domain.ErrRemotePersistence)
}

// Update overwrites the record's document under its existing id.
func (r *RemoteProjectRepository) Update(ctx context.Context, recordID string, rec *domain.RemoteRecord) error {
	if err := r.wait(ctx); err != nil {
		return err
	}

	payload, err := codec.Encode(rec.Project)
	if err != nil {
		return err
	}

	const q = `
UPDATE remote_projects
SET payload = $2, updated_at = $3
WHERE record_id = $1;
`
	result, err := r.db.ExecContext(ctx, q, recordID, payload, rfc3339(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: record %s not found", domain.ErrRemotePersistence, recordID)
	}
	return nil
}

// Delete removes the record by its opaque id.
func (r *RemoteProjectRepository) Delete(ctx context.Context, recordID string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}

	const q = `DELETE FROM remote_projects WHERE record_id = $1;`
	if _, err := r.db.ExecContext(ctx, q, recordID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}
	return nil
}

// ListByOwner returns all of an owner's records, most recently
// updated first.
func (r *RemoteProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.RemoteRecord, error) {
	const q = `
SELECT record_id, owner_id, project_id, payload, updated_at
FROM remote_projects
WHERE owner_id = $1
ORDER BY updated_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}
	defer rows.Close()

	out := make([]*domain.RemoteRecord, 0, 16)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}
	return out, nil
}

// FindByOwnerAndProject locates the owner's record embedding the
// given project id, or nil when none exists. Backed by the unique
// (owner_id, project_id) index rather than an owner scan.
func (r *RemoteProjectRepository) FindByOwnerAndProject(ctx context.Context, ownerID, projectID string) (*domain.RemoteRecord, error) {
	const q = `
SELECT record_id, owner_id, project_id, payload, updated_at
FROM remote_projects
WHERE owner_id = $1 AND project_id = $2;
`
	row := r.db.QueryRowContext(ctx, q, ownerID, projectID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.RemoteRecord, error) {
	var rec domain.RemoteRecord
	var payload []byte
	var updatedAt string

	if err := row.Scan(&rec.RecordID, &rec.OwnerID, &rec.ProjectID, &payload, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}

	p, err := codec.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}
	rec.Project = p

	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad updated_at %q", domain.ErrRemotePersistence, updatedAt)
	}
	rec.UpdatedAt = ts

	return &rec, nil
}

func (r *RemoteProjectRepository) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err)
	}
	return nil
}
