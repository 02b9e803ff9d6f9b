package http

import (
	"time"

	"github.com/playforge-dev/playforge-backend/internal/projects/service"
)

// AutoSaveDefaults are used when a start request leaves the interval
// or retry ceiling unset.
type AutoSaveDefaults struct {
	Interval   time.Duration
	MaxRetries int
}

// Handler bundles the dependencies for project persistence endpoints.
type Handler struct {
	svc       *service.PersistenceService
	autosaver *service.AutoSaver
	defaults  AutoSaveDefaults
}

func New(svc *service.PersistenceService, autosaver *service.AutoSaver, defaults AutoSaveDefaults) *Handler {
	if defaults.Interval <= 0 {
		defaults.Interval = 30 * time.Second
	}
	if defaults.MaxRetries <= 0 {
		defaults.MaxRetries = 3
	}
	return &Handler{svc: svc, autosaver: autosaver, defaults: defaults}
}
