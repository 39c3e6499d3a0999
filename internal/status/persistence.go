package status

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/stacklok/feedrelay/internal/fsutil"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for sync status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status to persistent storage
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus loads the sync status from persistent storage.
	// Returns an empty SyncStatus if nothing was saved yet (first run)
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

// fileStatusPersistence implements StatusPersistence using local filesystem
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence
// storing status.json under basePath
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

func (f *fileStatusPersistence) path() string {
	return filepath.Join(f.basePath, StatusFileName)
}

// SaveStatus saves the sync status to a JSON file
func (f *fileStatusPersistence) SaveStatus(_ context.Context, status *SyncStatus) error {
	if err := fsutil.WriteJSON(f.path(), status); err != nil {
		return fmt.Errorf("failed to save sync status: %w", err)
	}
	return nil
}

// LoadStatus loads the sync status from the JSON file
func (f *fileStatusPersistence) LoadStatus(_ context.Context) (*SyncStatus, error) {
	var status SyncStatus
	found, err := fsutil.ReadJSON(f.path(), &status)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync status: %w", err)
	}
	if !found {
		return &SyncStatus{}, nil
	}
	return &status, nil
}
