package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

func validProject() *domain.Project {
	return &domain.Project{
		ID:           "proj-12345-6789",
		Name:         "Demo",
		Version:      "1.0.0",
		CreatedAt:    time.Now(),
		LastModified: time.Now(),
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

func limits() Limits {
	return Limits{MaxNameLen: 100, MaxBytes: 1024 * 1024}
}

func TestCheckValidProject(t *testing.T) {
	bytes, err := Check(validProject(), limits())
	require.NoError(t, err)
	assert.Greater(t, bytes, 0)
}

func TestCheckFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *domain.Project)
		want   string
	}{
		{"missing id", func(p *domain.Project) { p.ID = " " }, "missing id"},
		{"empty name", func(p *domain.Project) { p.Name = "" }, "name is empty"},
		{"name too long", func(p *domain.Project) { p.Name = strings.Repeat("x", 101) }, "exceeds 100"},
		{"missing version", func(p *domain.Project) { p.Version = "" }, "missing version"},
		{"nil rules", func(p *domain.Project) { p.Script.Rules = nil }, "script"},
		{"nil counters", func(p *domain.Project) { p.Script.Counters = nil }, "script"},
		{"nil assets lists", func(p *domain.Project) { p.Assets.Objects = nil }, "assets"},
		{"empty settings", func(p *domain.Project) { p.Settings.Name = "" }, "settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProject()
			tt.mutate(p)

			_, err := Check(p, limits())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheckNilProject(t *testing.T) {
	_, err := Check(nil, limits())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckSizeCeiling(t *testing.T) {
	p := validProject()
	p.Assets.Objects = append(p.Assets.Objects, domain.Asset{
		Name: "huge",
		Kind: "sprite",
		Data: make([]byte, 2048),
	})

	size, err := Check(p, Limits{MaxNameLen: 100, MaxBytes: 1024})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Greater(t, size, 1024)
	// the failure names both sizes so the client can show them
	assert.Contains(t, err.Error(), "KB")
}

func TestCheckNameLenCountsRunes(t *testing.T) {
	p := validProject()
	p.Name = strings.Repeat("あ", 100)

	_, err := Check(p, limits())
	require.NoError(t, err)
}
