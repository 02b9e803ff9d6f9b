package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/playforge-dev/playforge-backend/internal/projects/cache"
)

// AutoSaveState is the scheduler's lifecycle state.
type AutoSaveState string

const (
	AutoSaveIdle             AutoSaveState = "idle"
	AutoSaveRunning          AutoSaveState = "running"
	AutoSaveStoppedOnFailure AutoSaveState = "stopped_on_failure"
)

// AutoSaver periodically flushes the dirty tier-1 entry for one
// project to the local store. Auto-save never pushes to the remote
// store; remote sync stays an explicit caller action. Repeated flush
// failures are converted into a single terminal callback once the
// retry ceiling is hit, instead of surfacing every failure.
type AutoSaver struct {
	cache cache.ProjectCache
	local LocalStore

	mu      sync.Mutex
	state   AutoSaveState
	stopCh  chan struct{}
	retries int
}

func NewAutoSaver(c cache.ProjectCache, local LocalStore) *AutoSaver {
	return &AutoSaver{
		cache: c,
		local: local,
		state: AutoSaveIdle,
	}
}

// Start begins a periodic flush loop for the project. Starting while
// a loop is already running (for any project) stops the previous one
// first — there is never more than one timer.
func (a *AutoSaver) Start(id string, interval time.Duration, maxRetries int, onFailure func(error)) {
	a.mu.Lock()
	a.stopLocked()
	stopCh := make(chan struct{})
	a.stopCh = stopCh
	a.state = AutoSaveRunning
	a.retries = 0
	a.mu.Unlock()

	go a.loop(id, interval, maxRetries, onFailure, stopCh)
}

// Stop cancels the timer unconditionally and resets the retry
// counter. In-flight local writes are not aborted, just not retried.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	a.stopLocked()
	a.state = AutoSaveIdle
	a.retries = 0
	a.mu.Unlock()
}

// State reports the scheduler's current lifecycle state.
func (a *AutoSaver) State() AutoSaveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *AutoSaver) stopLocked() {
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
}

func (a *AutoSaver) loop(id string, interval time.Duration, maxRetries int, onFailure func(error), stopCh chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if terminal := a.tick(id, maxRetries, onFailure, stopCh); terminal {
				return
			}
		}
	}
}

// tick flushes the entry if dirty. Returns true when the retry
// ceiling was hit and the loop must end.
func (a *AutoSaver) tick(id string, maxRetries int, onFailure func(error), stopCh chan struct{}) bool {
	entry, ok := a.cache.Get(id)
	if !ok || !entry.Dirty {
		return false
	}

	err := a.local.Put(context.Background(), entry.Project)
	if err == nil {
		a.cache.MarkClean(id)
		a.mu.Lock()
		a.retries = 0
		a.mu.Unlock()
		return false
	}

	log.Printf("[autosave] flush %s failed: %v", id, err)

	a.mu.Lock()
	a.retries++
	exhausted := a.retries >= maxRetries
	if exhausted {
		// the loop exits by itself; just detach the stop channel so a
		// later Stop/Start doesn't close it twice
		if a.stopCh == stopCh {
			a.stopCh = nil
		}
		a.state = AutoSaveStoppedOnFailure
	}
	a.mu.Unlock()

	if exhausted {
		if onFailure != nil {
			onFailure(err)
		}
		return true
	}
	return false
}
