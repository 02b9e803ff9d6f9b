package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

// Envelope format versions. Parsers accept only versions they know.
const (
	ExportFormatVersion = "1.0"
	BackupFormatVersion = "1.0"
)

// ExportEnvelope is the self-describing single-project archive. The
// metadata block is a snapshot only; importers rebuild metadata rather
// than trusting it verbatim.
type ExportEnvelope struct {
	FormatVersion string          `json:"format_version"`
	ExportedAt    string          `json:"exported_at"`
	Project       json.RawMessage `json:"project"`
	Metadata      metadataWire    `json:"metadata"`
}

// BackupEnvelope is the multi-project archive used by backup/restore.
type BackupEnvelope struct {
	FormatVersion string            `json:"format_version"`
	CreatedAt     string            `json:"created_at"`
	Projects      []json.RawMessage `json:"projects"`
}

// EncodeExport wraps a project in an export envelope.
func EncodeExport(p *domain.Project, now time.Time) ([]byte, error) {
	raw, err := Encode(p)
	if err != nil {
		return nil, err
	}

	env := ExportEnvelope{
		FormatVersion: ExportFormatVersion,
		ExportedAt:    now.UTC().Format(timeLayout),
		Project:       raw,
		Metadata:      toWire(p).Metadata,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode export envelope: %w", err)
	}
	return data, nil
}

// DecodeExport parses an export envelope and returns the embedded
// project. The envelope's metadata snapshot is discarded.
func DecodeExport(data []byte) (*domain.Project, error) {
	var env ExportEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode export envelope: %w", err)
	}
	if env.FormatVersion != ExportFormatVersion {
		return nil, fmt.Errorf("unsupported export format version %q", env.FormatVersion)
	}
	if len(env.Project) == 0 {
		return nil, fmt.Errorf("export envelope has no project")
	}
	return Decode(env.Project)
}

// EncodeBackup wraps a set of projects in a backup envelope.
func EncodeBackup(projects []*domain.Project, now time.Time) ([]byte, error) {
	env := BackupEnvelope{
		FormatVersion: BackupFormatVersion,
		CreatedAt:     now.UTC().Format(timeLayout),
		Projects:      make([]json.RawMessage, 0, len(projects)),
	}
	for _, p := range projects {
		raw, err := Encode(p)
		if err != nil {
			return nil, err
		}
		env.Projects = append(env.Projects, raw)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode backup envelope: %w", err)
	}
	return data, nil
}

// DecodeBackup parses a backup envelope into its projects.
func DecodeBackup(data []byte) ([]*domain.Project, error) {
	var env BackupEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode backup envelope: %w", err)
	}
	if env.FormatVersion != BackupFormatVersion {
		return nil, fmt.Errorf("unsupported backup format version %q", env.FormatVersion)
	}

	out := make([]*domain.Project, 0, len(env.Projects))
	for i, raw := range env.Projects {
		p, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("backup entry %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
