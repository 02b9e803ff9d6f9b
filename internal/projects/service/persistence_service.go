package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/playforge-dev/playforge-backend/internal/projects/cache"
	"github.com/playforge-dev/playforge-backend/internal/projects/codec"
	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
	"github.com/playforge-dev/playforge-backend/internal/projects/utils"
	"github.com/playforge-dev/playforge-backend/internal/projects/validate"
)

// LocalStore is the tier-2 durability backstop, keyed by project id.
type LocalStore interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
	Put(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*domain.Project, error)
}

// RemoteStore is the tier-3 authoritative database, keyed by an
// opaque record id joined to the project id through metadata.
type RemoteStore interface {
	Save(ctx context.Context, rec *domain.RemoteRecord) (string, error)
	Update(ctx context.Context, recordID string, rec *domain.RemoteRecord) error
	Delete(ctx context.Context, recordID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.RemoteRecord, error)
	FindByOwnerAndProject(ctx context.Context, ownerID, projectID string) (*domain.RemoteRecord, error)
}

// EntitlementStore gates first-time remote writes per owner.
type EntitlementStore interface {
	Get(ctx context.Context, ownerID string) (*domain.Entitlement, error)
	IncrementCreations(ctx context.Context, ownerID string) error
}

// SaveOptions controls which tiers a save reaches. Remote sync only
// happens when explicitly requested and an owner identity is present;
// an anonymous caller is local-only.
type SaveOptions struct {
	SyncRemote bool
	SkipLocal  bool
	Owner      *domain.Owner
}

// RestoreMode selects how a backup archive is applied.
type RestoreMode string

const (
	RestoreReplace RestoreMode = "replace"
	RestoreMerge   RestoreMode = "merge"
)

// PersistenceService orchestrates the three tiers. It is constructed
// with its collaborators injected, never reached through a package
// singleton, so tests can swap in fakes.
type PersistenceService struct {
	cache        cache.ProjectCache
	local        LocalStore
	remote       RemoteStore
	entitlements EntitlementStore
	limits       validate.Limits
	freeCap      int
	now          func() time.Time
}

func NewPersistenceService(
	c cache.ProjectCache,
	local LocalStore,
	remote RemoteStore,
	entitlements EntitlementStore,
	limits validate.Limits,
	freeCreationCap int,
) *PersistenceService {
	return &PersistenceService{
		cache:        c,
		local:        local,
		remote:       remote,
		entitlements: entitlements,
		limits:       limits,
		freeCap:      freeCreationCap,
		now:          time.Now,
	}
}

// Create builds an empty draft with safe defaults, caches it dirty,
// and writes it through to the local store.
func (s *PersistenceService) Create(ctx context.Context, name string) (*domain.Project, error) {
	id, err := utils.NewProjectID()
	if err != nil {
		return nil, fmt.Errorf("allocate project id: %w", err)
	}

	now := s.now()
	p := &domain.Project{
		ID:           id,
		Name:         name,
		Version:      "1.0.0",
		CreatedAt:    now,
		LastModified: now,
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
		Settings: domain.Settings{
			Name:            name,
			DurationSeconds: 60,
		},
		Status: domain.StatusDraft,
	}

	if _, err := validate.Check(p, s.limits); err != nil {
		return nil, err
	}

	s.cache.Put(p.ID, p, true)
	if err := s.local.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
	}
	s.cache.MarkClean(p.ID)

	return p, nil
}

// Load returns the project from tier-1, falling through to tier-2 on
// a miss and repopulating the cache on a hit. Absence is a nil
// project, not an error.
func (s *PersistenceService) Load(ctx context.Context, id string) (*domain.Project, error) {
	if entry, ok := s.cache.Get(id); ok {
		return entry.Project, nil
	}

	p, err := s.local.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
	}
	if p == nil {
		return nil, nil
	}

	s.cache.Put(id, p, false)
	return p, nil
}

// Save validates and writes the project through the tiers. Tier-1 is
// always updated; tier-2 unless SkipLocal; tier-3 only when
// SyncRemote is set and an owner is present. A tier-2 failure is
// returned as a hard error; tier-3 failures land in the result's
// error list — local durability outranks remote durability.
func (s *PersistenceService) Save(ctx context.Context, p *domain.Project, opts SaveOptions) (*domain.SaveResult, error) {
	start := s.now()
	res := &domain.SaveResult{}

	bytes, err := validate.Check(p, s.limits)
	if err != nil {
		return nil, err
	}
	res.Bytes = bytes

	// lastModified strictly increases on every persisted mutation
	lm := s.now()
	if !lm.After(p.LastModified) {
		lm = p.LastModified.Add(time.Nanosecond)
	}
	p.LastModified = lm

	s.cache.Put(p.ID, p, true)
	res.Tier1 = true

	if !opts.SkipLocal {
		if err := s.local.Put(ctx, p); err != nil {
			res.Duration = s.now().Sub(start)
			return res, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
		}
		res.Tier2 = true
		s.cache.MarkClean(p.ID)
	}

	if opts.SyncRemote && opts.Owner != nil {
		s.syncRemote(ctx, p, opts.Owner, res, opts.SkipLocal)
	}

	res.Duration = s.now().Sub(start)
	return res, nil
}

// syncRemote pushes the document to tier-3, creating or updating the
// owner's record. Failures are appended to the result, never
// propagated: the local write already committed.
func (s *PersistenceService) syncRemote(ctx context.Context, p *domain.Project, owner *domain.Owner, res *domain.SaveResult, skipLocal bool) {
	if s.remote == nil || s.entitlements == nil {
		res.RecordRemoteError(fmt.Errorf("%w: remote store not configured", domain.ErrRemotePersistence))
		return
	}

	rec := &domain.RemoteRecord{
		OwnerID:   owner.ID,
		ProjectID: p.ID,
		Project:   p,
		UpdatedAt: p.LastModified,
	}

	recordID := ""
	if p.Metadata.RemoteID != nil {
		recordID = *p.Metadata.RemoteID
	} else {
		// the linkage may have been cleared locally; look for an
		// existing record before treating this as a first-time save
		existing, err := s.remote.FindByOwnerAndProject(ctx, owner.ID, p.ID)
		if err != nil {
			res.RecordRemoteError(err)
			return
		}
		if existing != nil {
			recordID = existing.RecordID
		}
	}

	if recordID != "" {
		if err := s.remote.Update(ctx, recordID, rec); err != nil {
			res.RecordRemoteError(err)
			return
		}
	} else {
		ent, err := s.entitlements.Get(ctx, owner.ID)
		if err != nil {
			res.RecordRemoteError(fmt.Errorf("%w: %v", domain.ErrRemotePersistence, err))
			return
		}
		if !ent.Premium && !owner.Premium && ent.CreationsUsed >= s.freeCap {
			res.RecordRemoteError(fmt.Errorf("%w: %d of %d creations used",
				domain.ErrQuotaExceeded, ent.CreationsUsed, s.freeCap))
			return
		}

		recordID, err = s.remote.Save(ctx, rec)
		if err != nil {
			res.RecordRemoteError(err)
			return
		}
		if err := s.entitlements.IncrementCreations(ctx, owner.ID); err != nil {
			log.Printf("[persist] increment creations for %s: %v", owner.ID, err)
		}
	}

	syncedAt := s.now()
	p.Metadata.RemoteID = &recordID
	p.Metadata.LastSyncedAt = &syncedAt
	res.Tier3 = true

	// the linkage mutation is new unflushed state until tier-2
	// confirms it; only then does the entry go clean
	s.cache.Put(p.ID, p, true)
	if skipLocal {
		return
	}
	if err := s.local.Put(ctx, p); err != nil {
		log.Printf("[persist] store remote linkage for %s: %v", p.ID, err)
		return
	}
	s.cache.MarkClean(p.ID)
}

// Duplicate makes a structural copy under a fresh identity. The copy
// never aliases the source's remote record and always starts as an
// unpublished draft.
func (s *PersistenceService) Duplicate(ctx context.Context, id, newName string) (*domain.Project, error) {
	src, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("duplicate: project %s not found", id)
	}

	dup, err := structuralCopy(src)
	if err != nil {
		return nil, err
	}

	newID, err := utils.NewProjectID()
	if err != nil {
		return nil, fmt.Errorf("allocate project id: %w", err)
	}

	now := s.now()
	dup.ID = newID
	dup.Name = newName
	dup.Settings.Name = newName
	dup.CreatedAt = now
	dup.LastModified = now
	resetIdentity(dup)

	if _, err := validate.Check(dup, s.limits); err != nil {
		return nil, err
	}
	if _, err := s.Save(ctx, dup, SaveOptions{}); err != nil {
		return nil, err
	}
	return dup, nil
}

// Delete removes the project from every tier. A failed remote delete
// is logged and swallowed: the project disappears from the device
// regardless of remote outcome.
func (s *PersistenceService) Delete(ctx context.Context, id string) error {
	p, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	if p != nil && p.Metadata.RemoteID != nil && s.remote != nil {
		if err := s.remote.Delete(ctx, *p.Metadata.RemoteID); err != nil {
			log.Printf("[persist] remote delete for %s (record %s): %v", id, *p.Metadata.RemoteID, err)
		}
	}

	s.cache.Evict(id)
	if err := s.local.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
	}
	return nil
}

// Export wraps the project in a self-describing archive envelope.
func (s *PersistenceService) Export(ctx context.Context, id string) ([]byte, error) {
	p, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("export: project %s not found", id)
	}
	return codec.EncodeExport(p, s.now())
}

// Import parses an export archive and saves its project under a fresh
// identity with rebuilt metadata, mirroring Duplicate's reset rule.
func (s *PersistenceService) Import(ctx context.Context, data []byte) (*domain.Project, error) {
	p, err := codec.DecodeExport(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	newID, err := utils.NewProjectID()
	if err != nil {
		return nil, fmt.Errorf("allocate project id: %w", err)
	}

	now := s.now()
	p.ID = newID
	p.CreatedAt = now
	p.LastModified = now
	p.Metadata = domain.Metadata{}
	resetIdentity(p)

	if _, err := validate.Check(p, s.limits); err != nil {
		return nil, err
	}
	if _, err := s.Save(ctx, p, SaveOptions{}); err != nil {
		return nil, err
	}
	return p, nil
}

// Backup archives every locally stored project.
func (s *PersistenceService) Backup(ctx context.Context) ([]byte, error) {
	projects, err := s.local.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
	}
	return codec.EncodeBackup(projects, s.now())
}

// Restore applies a backup archive. Replace drops everything local
// first and reinserts the archived projects verbatim; merge inserts
// them alongside existing data under fresh identities.
func (s *PersistenceService) Restore(ctx context.Context, data []byte, mode RestoreMode) (int, error) {
	projects, err := codec.DecodeBackup(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	switch mode {
	case RestoreReplace:
		existing, err := s.local.ListAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
		}
		for _, p := range existing {
			s.cache.Evict(p.ID)
			if err := s.local.Delete(ctx, p.ID); err != nil {
				return 0, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
			}
		}
		for _, p := range projects {
			if err := s.local.Put(ctx, p); err != nil {
				return 0, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
			}
			s.cache.Put(p.ID, p, false)
		}
		return len(projects), nil

	case RestoreMerge:
		now := s.now()
		for _, p := range projects {
			newID, err := utils.NewProjectID()
			if err != nil {
				return 0, fmt.Errorf("allocate project id: %w", err)
			}
			p.ID = newID
			p.CreatedAt = now
			p.LastModified = now
			p.Metadata = domain.Metadata{}
			resetIdentity(p)
			if err := s.local.Put(ctx, p); err != nil {
				return 0, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
			}
			s.cache.Put(p.ID, p, false)
		}
		return len(projects), nil

	default:
		return 0, fmt.Errorf("%w: unknown restore mode %q", domain.ErrValidation, mode)
	}
}

// List merges local and, when an owner is supplied, remote summaries.
// When both tiers hold the same project id the more recently modified
// side wins — the engine's only conflict rule, applied at read time.
func (s *PersistenceService) List(ctx context.Context, owner *domain.Owner) ([]domain.Summary, error) {
	locals, err := s.local.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLocalPersistence, err)
	}

	byID := make(map[string]domain.Summary, len(locals))
	for _, p := range locals {
		byID[p.ID] = domain.Summary{
			ID:           p.ID,
			Name:         p.Name,
			Status:       p.Status,
			LastModified: p.LastModified,
			Remote:       p.Metadata.RemoteID != nil,
		}
	}

	if owner != nil && s.remote != nil {
		records, err := s.remote.ListByOwner(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			existing, ok := byID[rec.ProjectID]
			if ok && !rec.Project.LastModified.After(existing.LastModified) {
				continue
			}
			byID[rec.ProjectID] = domain.Summary{
				ID:           rec.ProjectID,
				Name:         rec.Project.Name,
				Status:       rec.Project.Status,
				LastModified: rec.Project.LastModified,
				Remote:       true,
			}
		}
	}

	out := make([]domain.Summary, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

// Publish ensures a remote record exists, then marks the project
// published. Unlike Save, a remote failure here is fatal: visibility
// without a remote record would violate the published invariant.
func (s *PersistenceService) Publish(ctx context.Context, id string, owner *domain.Owner) (*domain.Project, error) {
	if owner == nil {
		return nil, fmt.Errorf("%w: publish requires an owner", domain.ErrRemotePersistence)
	}

	p, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("publish: project %s not found", id)
	}

	p.Status = domain.StatusPublished
	p.Settings.Visible = true

	res, err := s.Save(ctx, p, SaveOptions{SyncRemote: true, Owner: owner})
	if err != nil {
		return nil, err
	}
	if !res.Tier3 {
		// roll the local copy back to draft; published implies remote
		p.Status = domain.StatusDraft
		p.Settings.Visible = false
		if _, saveErr := s.Save(ctx, p, SaveOptions{}); saveErr != nil {
			log.Printf("[persist] rollback after failed publish of %s: %v", id, saveErr)
		}
		if res.RemoteErr != nil {
			if errors.Is(res.RemoteErr, domain.ErrQuotaExceeded) ||
				errors.Is(res.RemoteErr, domain.ErrRemotePersistence) {
				return nil, fmt.Errorf("publish %s: %w", id, res.RemoteErr)
			}
			return nil, fmt.Errorf("%w: publish %s: %v", domain.ErrRemotePersistence, id, res.RemoteErr)
		}
		return nil, domain.ErrRemotePersistence
	}

	return p, nil
}

// structuralCopy deep-copies a project through its wire form.
func structuralCopy(p *domain.Project) (*domain.Project, error) {
	data, err := codec.Encode(p)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data)
}

// resetIdentity clears remote linkage and publishing state. Applied
// on duplicate, import and merge-restore so a copy can never alias
// its source's remote record.
func resetIdentity(p *domain.Project) {
	p.Metadata.RemoteID = nil
	p.Metadata.LastSyncedAt = nil
	p.Status = domain.StatusDraft
	p.Settings.Visible = false
	p.Settings.Listed = false
}
