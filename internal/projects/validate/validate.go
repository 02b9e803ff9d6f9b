package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/playforge-dev/playforge-backend/internal/projects/codec"
	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

// Limits are the shape and size ceilings a project must satisfy
// before any tier write.
type Limits struct {
	MaxNameLen int
	MaxBytes   int
}

// Check validates a candidate project. It is side-effect free and
// called synchronously before any tier write; a failure aborts the
// whole save with no partial writes. All failures wrap
// domain.ErrValidation.
//
// The size check runs against the serialized form, so the returned
// byte count is exactly what a tier write would store.
func Check(p *domain.Project, limits Limits) (int, error) {
	if p == nil {
		return 0, fmt.Errorf("%w: nil project", domain.ErrValidation)
	}
	if strings.TrimSpace(p.ID) == "" {
		return 0, fmt.Errorf("%w: missing id", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return 0, fmt.Errorf("%w: name is empty", domain.ErrValidation)
	}
	if limits.MaxNameLen > 0 && utf8.RuneCountInString(p.Name) > limits.MaxNameLen {
		return 0, fmt.Errorf("%w: name exceeds %d characters", domain.ErrValidation, limits.MaxNameLen)
	}
	if strings.TrimSpace(p.Version) == "" {
		return 0, fmt.Errorf("%w: missing version", domain.ErrValidation)
	}
	if p.Script.Rules == nil || p.Script.Counters == nil {
		return 0, fmt.Errorf("%w: script sub-document incomplete", domain.ErrValidation)
	}
	if p.Assets.Objects == nil || p.Assets.Texts == nil || p.Assets.SoundEffects == nil {
		return 0, fmt.Errorf("%w: assets sub-document incomplete", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Settings.Name) == "" {
		return 0, fmt.Errorf("%w: settings sub-document incomplete", domain.ErrValidation)
	}

	data, err := codec.Encode(p)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if limits.MaxBytes > 0 && len(data) > limits.MaxBytes {
		return len(data), fmt.Errorf("%w: project is %s, limit is %s",
			domain.ErrValidation, humanBytes(len(data)), humanBytes(limits.MaxBytes))
	}

	return len(data), nil
}

func humanBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
