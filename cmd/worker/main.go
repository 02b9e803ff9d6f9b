package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/playforge-dev/playforge-backend/config"
	"github.com/playforge-dev/playforge-backend/internal/backup"
	cronjob "github.com/playforge-dev/playforge-backend/internal/maintenance/cron"
	"github.com/playforge-dev/playforge-backend/internal/projects/cache"
	"github.com/playforge-dev/playforge-backend/internal/projects/repository"
	"github.com/playforge-dev/playforge-backend/internal/projects/service"
	"github.com/playforge-dev/playforge-backend/internal/projects/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	localDB, err := repository.OpenLocal(cfg.LocalStore.Path)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer localDB.Close()
	local := repository.NewLocalProjectRepository(localDB)

	projectCache := cache.NewMemoryCache(cfg.Quota.CacheTTL)
	persistence := service.NewPersistenceService(
		projectCache, local, nil, nil,
		validate.Limits{
			MaxNameLen: cfg.Quota.MaxNameLen,
			MaxBytes:   cfg.Quota.MaxProjectBytes,
		},
		cfg.Quota.FreeCreationCap,
	)

	var backupSvc *backup.Service
	if cfg.Backup.S3Bucket != "" {
		sink, err := backup.NewS3Sink(context.Background(),
			cfg.Backup.S3Region, cfg.Backup.S3Bucket, cfg.Backup.S3Prefix)
		if err != nil {
			log.Fatalf("init backup sink: %v", err)
		}
		backupSvc = backup.NewService(persistence, sink)
	} else {
		log.Println("BACKUP_S3_BUCKET not set, nightly backups disabled")
	}

	// the worker's cache exists only to satisfy the facade; the sweep
	// belongs to the process actually serving reads (cmd/api)
	scheduler := cronjob.NewScheduler(nil, backupSvc)
	scheduler.Start()
	defer scheduler.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("worker shutting down")
}
