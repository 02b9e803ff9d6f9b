package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

// setupTestPostgres creates a test PostgreSQL connection.
// Skips the test if TEST_DB_DSN is not set.
func setupTestPostgres(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping PostgreSQL integration test")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	return db
}

func TestRemoteRepoSaveUpdateDelete(t *testing.T) {
	db := setupTestPostgres(t)
	repo := NewRemoteProjectRepository(db, 0)
	ctx := context.Background()

	require.NoError(t, repo.EnsureSchema(ctx))

	owner := "test-owner-" + time.Now().Format("150405.000000000")
	p := localProject("proj-remote-1", time.Now().UTC())
	rec := &domain.RemoteRecord{
		OwnerID:   owner,
		ProjectID: p.ID,
		Project:   p,
		UpdatedAt: p.LastModified,
	}

	recordID, err := repo.Save(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, recordID)
	assert.NotEqual(t, p.ID, recordID, "record id and project id are distinct key spaces")

	// a second first-time save for the same owner+project must fail
	_, err = repo.Save(ctx, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemotePersistence)

	found, err := repo.FindByOwnerAndProject(ctx, owner, p.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, recordID, found.RecordID)

	p.Name = "Updated"
	p.LastModified = p.LastModified.Add(time.Minute)
	rec.UpdatedAt = p.LastModified
	require.NoError(t, repo.Update(ctx, recordID, rec))

	records, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Updated", records[0].Project.Name)

	require.NoError(t, repo.Delete(ctx, recordID))

	found, err = repo.FindByOwnerAndProject(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRemoteRepoUpdateMissingRecord(t *testing.T) {
	db := setupTestPostgres(t)
	repo := NewRemoteProjectRepository(db, 0)
	ctx := context.Background()

	require.NoError(t, repo.EnsureSchema(ctx))

	p := localProject("proj-remote-2", time.Now().UTC())
	err := repo.Update(ctx, "00000000-0000-0000-0000-000000000000", &domain.RemoteRecord{
		OwnerID:   "nobody",
		ProjectID: p.ID,
		Project:   p,
		UpdatedAt: p.LastModified,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemotePersistence)
}
