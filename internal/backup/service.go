package backup

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Archiver produces a backup archive of every locally stored project.
// The persistence facade satisfies this.
type Archiver interface {
	Backup(ctx context.Context) ([]byte, error)
}

// Sink stores and retrieves named archives.
type Sink interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// Service ships backup archives to a sink. Used by the nightly
// maintenance job and by operator-triggered backups.
type Service struct {
	archiver Archiver
	sink     Sink
}

func NewService(archiver Archiver, sink Sink) *Service {
	return &Service{archiver: archiver, sink: sink}
}

// Run builds one archive and uploads it under a timestamped name.
func (s *Service) Run(ctx context.Context) (string, error) {
	data, err := s.archiver.Backup(ctx)
	if err != nil {
		return "", fmt.Errorf("build backup archive: %w", err)
	}

	name := fmt.Sprintf("projects-%s.json", time.Now().UTC().Format("20060102-150405"))
	key, err := s.sink.Upload(ctx, name, data)
	if err != nil {
		return "", err
	}

	log.Printf("[backup] shipped %s (%d bytes)", key, len(data))
	return key, nil
}
