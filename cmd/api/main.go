package main

import (
	"context"
	"database/sql"
	"log"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"

	"github.com/playforge-dev/playforge-backend/config"
	"github.com/playforge-dev/playforge-backend/internal/auth"
	"github.com/playforge-dev/playforge-backend/internal/bootstrap"
	cronjob "github.com/playforge-dev/playforge-backend/internal/maintenance/cron"
	"github.com/playforge-dev/playforge-backend/internal/projects/cache"
	projhttp "github.com/playforge-dev/playforge-backend/internal/projects/http"
	"github.com/playforge-dev/playforge-backend/internal/projects/repository"
	"github.com/playforge-dev/playforge-backend/internal/projects/service"
	"github.com/playforge-dev/playforge-backend/internal/projects/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	localDB, err := repository.OpenLocal(cfg.LocalStore.Path)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer localDB.Close()
	local := repository.NewLocalProjectRepository(localDB)

	// Remote tiers are optional: without a reachable Postgres the
	// engine runs local-only and remote sync requests fail softly.
	var remoteDB *sql.DB
	var remote service.RemoteStore
	var entitlements service.EntitlementStore

	dbOpts := bootstrap.DBOptions{DSN: cfg.Database.DSN()}
	remoteDB, err = bootstrap.OpenRemoteDB(ctx, dbOpts)
	if err != nil {
		log.Printf("remote db unavailable, running local-only: %v", err)
	} else {
		defer remoteDB.Close()
		remoteRepo := repository.NewRemoteProjectRepository(remoteDB, 20)
		if err := remoteRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("remote schema: %v", err)
		}
		remote = remoteRepo

		pool, err := bootstrap.OpenPool(ctx, dbOpts)
		if err != nil {
			log.Fatalf("open pgx pool: %v", err)
		}
		defer pool.Close()
		entRepo := repository.NewEntitlementRepository(pool, cfg.Quota.CreationPeriod)
		if err := entRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("entitlement schema: %v", err)
		}
		entitlements = entRepo
	}

	var projectCache cache.ProjectCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		defer client.Close()
		projectCache = cache.NewRedisCache(client, cfg.Quota.CacheTTL)
	} else {
		projectCache = cache.NewMemoryCache(cfg.Quota.CacheTTL)
	}

	var authClient *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		authClient, err = auth.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			log.Fatalf("init firebase: %v", err)
		}
	} else {
		log.Println("Firebase credentials not configured, running anonymous-only")
	}

	persistence := service.NewPersistenceService(
		projectCache, local, remote, entitlements,
		validate.Limits{
			MaxNameLen: cfg.Quota.MaxNameLen,
			MaxBytes:   cfg.Quota.MaxProjectBytes,
		},
		cfg.Quota.FreeCreationCap,
	)
	autosaver := service.NewAutoSaver(projectCache, local)

	// nightly sweep of the in-process cache; Redis expires server-side
	// but the sweep is a no-op there, so wiring it unconditionally is fine
	sweeper := cronjob.NewScheduler(projectCache, nil)
	sweeper.Start()
	defer sweeper.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "playforge-persistence",
		Version:     cfg.App.Version,
		LocalDB:     localDB,
		RemoteDB:    remoteDB,
		AuthClient:  authClient,
		Persistence: persistence,
		AutoSaver:   autosaver,
		AutoSave: projhttp.AutoSaveDefaults{
			Interval:   cfg.AutoSave.Interval,
			MaxRetries: cfg.AutoSave.MaxRetries,
		},
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
