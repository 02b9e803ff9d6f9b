package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/playforge-dev/playforge-backend/internal/backup"
	"github.com/playforge-dev/playforge-backend/internal/projects/cache"
)

// Scheduler runs the nightly maintenance jobs: sweeping expired cache
// entries and shipping a backup archive. Either collaborator may be
// nil — the API process sweeps its in-process cache and has no backup
// sink; the worker ships backups and holds no cache worth sweeping.
type Scheduler struct {
	cache  cache.ProjectCache
	backup *backup.Service
	cron   *cron.Cron
}

func NewScheduler(c cache.ProjectCache, b *backup.Service) *Scheduler {
	return &Scheduler{cache: c, backup: b}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	//  (12:00 AM)
	_, err := c.AddFunc("0 0 0 * * *", func() {
		s.runNightlyJobs()
	})

	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (running nightly at 12:00AM)")
	c.Start()
	s.cron = c
}

// Stop halts the cron loop; running jobs finish on their own.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) runNightlyJobs() {
	log.Println("Nightly maintenance started...")

	if s.cache != nil {
		if removed := s.cache.EvictExpired(); removed > 0 {
			log.Printf("Swept %d expired cache entries", removed)
		}
	}

	if s.backup != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := s.backup.Run(ctx); err != nil {
			log.Printf("Backup failed: %v", err)
			return
		}
	}

	log.Println("Nightly maintenance completed successfully at:", time.Now().Format(time.RFC1123))
}
