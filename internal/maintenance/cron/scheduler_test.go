package cronjob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge-dev/playforge-backend/internal/backup"
	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

type sweepCounter struct {
	sweeps int
}

func (c *sweepCounter) Get(string) (*domain.CacheEntry, bool) { return nil, false }
func (c *sweepCounter) Put(string, *domain.Project, bool)     {}
func (c *sweepCounter) MarkClean(string)                      {}
func (c *sweepCounter) Evict(string)                          {}
func (c *sweepCounter) EvictExpired() int                     { c.sweeps++; return 0 }

type stubArchiver struct{}

func (stubArchiver) Backup(context.Context) ([]byte, error) { return []byte("{}"), nil }

type recordingSink struct {
	uploads int
}

func (s *recordingSink) Upload(_ context.Context, name string, _ []byte) (string, error) {
	s.uploads++
	return name, nil
}

func (s *recordingSink) Download(context.Context, string) ([]byte, error) {
	return nil, nil
}

func TestNightlyJobsSweepOnly(t *testing.T) {
	c := &sweepCounter{}
	s := NewScheduler(c, nil)

	s.runNightlyJobs()

	assert.Equal(t, 1, c.sweeps)
}

func TestNightlyJobsBackupOnly(t *testing.T) {
	sink := &recordingSink{}
	s := NewScheduler(nil, backup.NewService(stubArchiver{}, sink))

	require.NotPanics(t, func() { s.runNightlyJobs() })
	assert.Equal(t, 1, sink.uploads)
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(nil, nil)
	require.NotPanics(t, s.Stop)
}
