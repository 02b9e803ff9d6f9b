package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

// Timestamps cross the wire as RFC3339 strings, never as a store's
// native date type, so the local and remote stores stay
// interchangeable.
const timeLayout = time.RFC3339Nano

// projectWire is the transportable form of a project. It exists so
// that time fields serialize as strings regardless of what the domain
// model or a backing store would do natively.
type projectWire struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	CreatedAt    string          `json:"created_at"`
	LastModified string          `json:"last_modified"`
	Assets       domain.Assets   `json:"assets"`
	Script       domain.Script   `json:"script"`
	Settings     domain.Settings `json:"settings"`
	Status       string          `json:"status"`
	Creator      *string         `json:"creator,omitempty"`
	Metadata     metadataWire    `json:"metadata"`
}

type metadataWire struct {
	UsageStats       map[string]int `json:"usage_stats,omitempty"`
	PerformanceStats map[string]int `json:"performance_stats,omitempty"`
	RemoteID         *string        `json:"remote_id,omitempty"`
	LastSyncedAt     *string        `json:"last_synced_at,omitempty"`
}

// Encode converts a project to its transportable byte form. The
// result is also what the size quota is computed from.
func Encode(p *domain.Project) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil project")
	}

	w := toWire(p)
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode project %s: %w", p.ID, err)
	}
	return data, nil
}

// Decode parses a transportable byte form back into a project.
// Round-tripping through Encode/Decode is lossless.
func Decode(data []byte) (*domain.Project, error) {
	var w projectWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	return fromWire(&w)
}

func toWire(p *domain.Project) *projectWire {
	w := &projectWire{
		ID:           p.ID,
		Name:         p.Name,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt.UTC().Format(timeLayout),
		LastModified: p.LastModified.UTC().Format(timeLayout),
		Assets:       p.Assets,
		Script:       p.Script,
		Settings:     p.Settings,
		Status:       p.Status,
		Creator:      p.Creator,
		Metadata: metadataWire{
			UsageStats:       p.Metadata.UsageStats,
			PerformanceStats: p.Metadata.PerformanceStats,
			RemoteID:         p.Metadata.RemoteID,
		},
	}
	if p.Metadata.LastSyncedAt != nil {
		s := p.Metadata.LastSyncedAt.UTC().Format(timeLayout)
		w.Metadata.LastSyncedAt = &s
	}
	return w
}

func fromWire(w *projectWire) (*domain.Project, error) {
	createdAt, err := parseTime(w.CreatedAt, "created_at")
	if err != nil {
		return nil, err
	}
	lastModified, err := parseTime(w.LastModified, "last_modified")
	if err != nil {
		return nil, err
	}

	p := &domain.Project{
		ID:           w.ID,
		Name:         w.Name,
		Version:      w.Version,
		CreatedAt:    createdAt,
		LastModified: lastModified,
		Assets:       w.Assets,
		Script:       w.Script,
		Settings:     w.Settings,
		Status:       w.Status,
		Creator:      w.Creator,
		Metadata: domain.Metadata{
			UsageStats:       w.Metadata.UsageStats,
			PerformanceStats: w.Metadata.PerformanceStats,
			RemoteID:         w.Metadata.RemoteID,
		},
	}
	if w.Metadata.LastSyncedAt != nil {
		ts, err := parseTime(*w.Metadata.LastSyncedAt, "last_synced_at")
		if err != nil {
			return nil, err
		}
		p.Metadata.LastSyncedAt = &ts
	}
	return p, nil
}

func parseTime(s, field string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode project: bad %s %q: %w", field, s, err)
	}
	return t, nil
}
