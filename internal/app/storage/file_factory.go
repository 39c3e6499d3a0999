package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/status"
	"github.com/stacklok/feedrelay/internal/subscriptions"
	"github.com/stacklok/feedrelay/internal/sync/state"
	"github.com/stacklok/feedrelay/internal/sync/writer"
)

// lockFileName is created inside the data directory and held for the life
// of the factory.
const lockFileName = ".feedrelay.lock"

// ErrDataDirLocked is returned when another process holds the data directory.
var ErrDataDirLocked = errors.New("data directory is in use by another process")

// FileFactory creates file-based storage components.
// All components created by this factory use the local filesystem for persistence.
type FileFactory struct {
	config  *config.Config
	dataDir string
	lock    *flock.Flock

	statusPersistence status.StatusPersistence
}

var _ Factory = (*FileFactory)(nil)

// NewFileFactory creates a new file-based storage factory.
// It ensures the data directory exists and takes an exclusive lock on it.
func NewFileFactory(cfg *config.Config) (*FileFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	dataDir := cfg.Storage.GetDataDir()
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock data directory %s: %w", dataDir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, dataDir)
	}

	slog.Info("Creating file-based storage factory", "data_dir", dataDir)

	return &FileFactory{
		config:            cfg,
		dataDir:           dataDir,
		lock:              lock,
		statusPersistence: status.NewFileStatusPersistence(dataDir),
	}, nil
}

// CreateCheckpointStore creates a file-based checkpoint store.
func (f *FileFactory) CreateCheckpointStore(_ context.Context) (state.CheckpointStore, error) {
	slog.Debug("Creating file-based checkpoint store")
	return state.NewCheckpointStore(f.config, nil)
}

// CreateItemWriter creates a file-based item writer.
func (f *FileFactory) CreateItemWriter(_ context.Context) (writer.ItemWriter, error) {
	slog.Debug("Creating file-based item writer")
	return writer.NewItemWriter(f.config, nil)
}

// CreateRegistry creates a file-based subscription registry.
func (f *FileFactory) CreateRegistry(_ context.Context) (subscriptions.Registry, error) {
	slog.Debug("Creating file-based subscription registry")
	return subscriptions.NewRegistry(f.config, nil)
}

// CreateStatusPersistence returns the status file inside the data directory.
func (f *FileFactory) CreateStatusPersistence() status.StatusPersistence {
	return f.statusPersistence
}

// Ping checks that the data directory is still there.
func (f *FileFactory) Ping(_ context.Context) error {
	info, err := os.Stat(f.dataDir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", f.dataDir)
	}
	return nil
}

// Cleanup releases the data directory lock.
func (f *FileFactory) Cleanup() {
	if f.lock == nil {
		return
	}
	if err := f.lock.Unlock(); err != nil {
		slog.Warn("Failed to release data directory lock", "error", err)
	}
}
