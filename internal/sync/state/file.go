package state

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/stacklok/feedrelay/internal/fsutil"
)

type fileCheckpointStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCheckpointStore stores the checkpoint as JSON in dataDir.
func NewFileCheckpointStore(dataDir string) CheckpointStore {
	return &fileCheckpointStore{path: filepath.Join(dataDir, CheckpointFileName)}
}

func (f *fileCheckpointStore) Get(_ context.Context) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, found, err := f.load()
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrCheckpointNotSeeded
	}
	return rec.LastSequence, nil
}

func (f *fileCheckpointStore) Set(_ context.Context, sequence uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, found, err := f.load()
	if err != nil {
		return err
	}
	if !found {
		return ErrCheckpointNotSeeded
	}
	return f.save(sequence)
}

func (f *fileCheckpointStore) Seed(_ context.Context, sequence uint32, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, found, err := f.load()
	if err != nil {
		return err
	}
	if found && !force {
		return fmt.Errorf("%w at %d", ErrCheckpointExists, rec.LastSequence)
	}
	if found {
		slog.Warn("Overwriting existing checkpoint", "previous", rec.LastSequence, "sequence", sequence)
	}
	return f.save(sequence)
}

func (f *fileCheckpointStore) load() (checkpointRecord, bool, error) {
	var rec checkpointRecord
	found, err := fsutil.ReadJSON(f.path, &rec)
	if err != nil {
		return checkpointRecord{}, false, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return rec, found, nil
}

func (f *fileCheckpointStore) save(sequence uint32) error {
	rec := checkpointRecord{LastSequence: sequence, UpdatedAt: time.Now().UTC()}
	if err := fsutil.WriteJSON(f.path, rec); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
