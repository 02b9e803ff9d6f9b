package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

func setupLocal(t *testing.T) *LocalProjectRepository {
	db, err := OpenLocal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewLocalProjectRepository(db)
}

func localProject(id string, lastModified time.Time) *domain.Project {
	return &domain.Project{
		ID:           id,
		Name:         "Demo " + id,
		Version:      "1.0.0",
		CreatedAt:    lastModified.Add(-time.Hour),
		LastModified: lastModified,
		Assets: domain.Assets{
			Objects:      []domain.Asset{},
			Texts:        []domain.Asset{},
			SoundEffects: []domain.Asset{},
		},
		Script: domain.Script{
			Rules:             []domain.Rule{},
			Counters:          map[string]int{},
			SuccessConditions: []string{},
			Layout:            "default",
			Version:           "1",
		},
		Settings: domain.Settings{Name: "Demo", DurationSeconds: 60},
		Status:   domain.StatusDraft,
	}
}

func TestLocalRepoPutGet(t *testing.T) {
	repo := setupLocal(t)
	ctx := context.Background()

	p := localProject("proj-1", time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Put(ctx, p))

	got, err := repo.Get(ctx, "proj-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p, got)
}

func TestLocalRepoGetAbsentReturnsNil(t *testing.T) {
	repo := setupLocal(t)

	got, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLocalRepoPutOverwrites(t *testing.T) {
	repo := setupLocal(t)
	ctx := context.Background()

	p := localProject("proj-1", time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Put(ctx, p))

	p.Name = "Renamed"
	p.LastModified = p.LastModified.Add(time.Minute)
	require.NoError(t, repo.Put(ctx, p))

	got, err := repo.Get(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, p.LastModified, got.LastModified)
}

func TestLocalRepoDelete(t *testing.T) {
	repo := setupLocal(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, localProject("proj-1", time.Now().UTC())))
	require.NoError(t, repo.Delete(ctx, "proj-1"))

	got, err := repo.Get(ctx, "proj-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting an absent id is not an error
	require.NoError(t, repo.Delete(ctx, "missing"))
}

func TestLocalRepoListAllSortsByLastModifiedDesc(t *testing.T) {
	repo := setupLocal(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, localProject("proj-old", base)))
	require.NoError(t, repo.Put(ctx, localProject("proj-new", base.Add(2*time.Hour))))
	require.NoError(t, repo.Put(ctx, localProject("proj-mid", base.Add(time.Hour))))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "proj-new", all[0].ID)
	assert.Equal(t, "proj-mid", all[1].ID)
	assert.Equal(t, "proj-old", all[2].ID)
}

func TestLocalRepoOrderingWithinSameSecond(t *testing.T) {
	repo := setupLocal(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, localProject("proj-a", base.Add(250*time.Millisecond))))
	require.NoError(t, repo.Put(ctx, localProject("proj-b", base.Add(500*time.Millisecond))))
	require.NoError(t, repo.Put(ctx, localProject("proj-c", base)))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "proj-b", all[0].ID)
	assert.Equal(t, "proj-a", all[1].ID)
	assert.Equal(t, "proj-c", all[2].ID)
}
