package domain

import "time"

// Project status values.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Project is a user's editable game document. It is storage-agnostic
// and shared across the cache, repository, service and HTTP layers.
// The ID is client-generated and stable for the document's lifetime;
// it is never reused as a remote record identifier — the two key
// spaces are joined only through Metadata.RemoteID.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	Assets       Assets    `json:"assets"`
	Script       Script    `json:"script"`
	Settings     Settings  `json:"settings"`
	Status       string    `json:"status"`
	Creator      *string   `json:"creator,omitempty"`
	Metadata     Metadata  `json:"metadata"`
}

// Assets holds the binary-bearing resources of a project.
type Assets struct {
	Background      *Asset  `json:"background,omitempty"`
	Objects         []Asset `json:"objects"`
	Texts           []Asset `json:"texts"`
	BackgroundMusic *Asset  `json:"background_music,omitempty"`
	SoundEffects    []Asset `json:"sound_effects"`
}

// Asset is a single named resource. Data is the raw (already encoded)
// resource payload.
type Asset struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Data []byte `json:"data,omitempty"`
}

// Script is the game-rule sub-document.
type Script struct {
	Rules             []Rule         `json:"rules"`
	Counters          map[string]int `json:"counters"`
	SuccessConditions []string       `json:"success_conditions"`
	Layout            string         `json:"layout"`
	Version           string         `json:"version"`
}

// Rule is a single game rule. The engine treats rules as opaque
// ordered entries; their semantics belong to the authoring layer.
type Rule struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Target string `json:"target"`
	Action string `json:"action"`
}

// Settings is the per-project settings sub-document.
type Settings struct {
	Name            string `json:"name"`
	DurationSeconds int    `json:"duration_seconds"`
	Visible         bool   `json:"visible"`
	Listed          bool   `json:"listed"`
}

// Metadata carries usage/performance statistics and, only once a
// project has been synchronized, the remote record linkage.
type Metadata struct {
	UsageStats       map[string]int `json:"usage_stats,omitempty"`
	PerformanceStats map[string]int `json:"performance_stats,omitempty"`
	RemoteID         *string        `json:"remote_id,omitempty"`
	LastSyncedAt     *time.Time     `json:"last_synced_at,omitempty"`
}

// CacheEntry is a tier-1 cache slot: the most recently known document
// plus capture time and a dirty flag. Dirty means the entry has
// mutations not yet confirmed in the durable local store.
type CacheEntry struct {
	Project  *Project
	CachedAt time.Time
	Dirty    bool
}

// SaveResult reports, per save, which tiers succeeded. It is returned
// to callers and never persisted. Remote failures land in Errors
// without rolling back the local write; RemoteErr carries the same
// failure in typed form for callers that branch on the taxonomy.
type SaveResult struct {
	Tier1     bool          `json:"tier1"`
	Tier2     bool          `json:"tier2"`
	Tier3     bool          `json:"tier3"`
	Bytes     int           `json:"bytes"`
	Duration  time.Duration `json:"duration"`
	Errors    []string      `json:"errors,omitempty"`
	RemoteErr error         `json:"-"`
}

// RecordRemoteError captures a tier-3 failure in both forms.
func (r *SaveResult) RecordRemoteError(err error) {
	r.RemoteErr = err
	r.Errors = append(r.Errors, err.Error())
}

// Summary is the listing projection of a project.
type Summary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	LastModified time.Time `json:"last_modified"`
	Remote       bool      `json:"remote"`
}

// RemoteRecord is the tier-3 representation: a full project document
// under an opaque record identifier, tagged with its owner.
type RemoteRecord struct {
	RecordID  string    `json:"record_id"`
	OwnerID   string    `json:"owner_id"`
	ProjectID string    `json:"project_id"`
	Project   *Project  `json:"project"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entitlement is the owner-level quota record consulted before
// first-time remote writes.
type Entitlement struct {
	OwnerID       string    `json:"owner_id"`
	Premium       bool      `json:"premium"`
	CreationsUsed int       `json:"creations_used"`
	PeriodStart   time.Time `json:"period_start"`
}

// Owner is the identity collaborator's output: a nullable owner with
// an elevated-quota flag. A nil *Owner means local-only, anonymous.
type Owner struct {
	ID      string
	Premium bool
}
