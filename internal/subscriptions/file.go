package subscriptions

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/stacklok/feedrelay/internal/fsutil"
)

// SubscriptionsFileName is the file used by the file-backed registry.
const SubscriptionsFileName = "subscriptions.json"

type subscription struct {
	DestinationID string    `json:"destination_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type fileRegistry struct {
	path string
	mu   sync.Mutex
}

// NewFileRegistry stores subscriptions as JSON in dataDir. Every call reads
// the file again. The data directory lock held by a running service keeps
// the CLI out, so edit subscriptions offline or through the bot commands.
func NewFileRegistry(dataDir string) Registry {
	return &fileRegistry{path: filepath.Join(dataDir, SubscriptionsFileName)}
}

func (f *fileRegistry) Add(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, err := f.load()
	if err != nil {
		return false, err
	}
	if slices.ContainsFunc(subs, func(s subscription) bool { return s.DestinationID == id }) {
		return false, nil
	}
	subs = append(subs, subscription{DestinationID: id, CreatedAt: time.Now().UTC()})
	if err := f.save(subs); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fileRegistry) Remove(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, err := f.load()
	if err != nil {
		return false, err
	}
	kept := slices.DeleteFunc(slices.Clone(subs), func(s subscription) bool { return s.DestinationID == id })
	if len(kept) == len(subs) {
		return false, nil
	}
	if err := f.save(kept); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fileRegistry) List(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, err := f.load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.DestinationID)
	}
	return ids, nil
}

func (f *fileRegistry) load() ([]subscription, error) {
	var subs []subscription
	if _, err := fsutil.ReadJSON(f.path, &subs); err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	return subs, nil
}

func (f *fileRegistry) save(subs []subscription) error {
	if subs == nil {
		subs = []subscription{}
	}
	if err := fsutil.WriteJSON(f.path, subs); err != nil {
		return fmt.Errorf("failed to save subscriptions: %w", err)
	}
	return nil
}
