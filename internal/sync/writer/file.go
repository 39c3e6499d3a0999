package writer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stacklok/feedrelay/internal/feed"
)

// ItemsFileName is the JSON Lines file used by the file-backed writer.
const ItemsFileName = "items.jsonl"

// storedItem is one line of the items file.
type storedItem struct {
	feed.Item
	HarvestedAt time.Time `json:"harvested_at"`
}

type fileItemWriter struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileItemWriter appends items to a JSON Lines file in dataDir.
func NewFileItemWriter(dataDir string) ItemWriter {
	return &fileItemWriter{
		path: filepath.Join(dataDir, ItemsFileName),
		now:  time.Now,
	}
}

// Store writes the whole batch with one write call followed by an fsync.
// Unlike the database writer it does not skip sequences already stored.
func (f *fileItemWriter) Store(_ context.Context, items []feed.Item) error {
	if len(items) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	harvestedAt := f.now().UTC()
	var buf []byte
	for _, item := range items {
		line, err := json.Marshal(storedItem{Item: item, HarvestedAt: harvestedAt})
		if err != nil {
			return fmt.Errorf("failed to marshal item %d: %w", item.Sequence, err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	file, err := os.OpenFile(filepath.Clean(f.path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open items file: %w", err)
	}
	if _, err := file.Write(buf); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to append items: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to sync items file: %w", err)
	}
	return file.Close()
}

// ReadFile returns every item stored in the items file under dataDir, in
// write order.
func ReadFile(dataDir string) ([]feed.Item, error) {
	file, err := os.Open(filepath.Join(dataDir, ItemsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open items file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var items []feed.Item
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var stored storedItem
		if err := json.Unmarshal(scanner.Bytes(), &stored); err != nil {
			return nil, fmt.Errorf("failed to decode item: %w", err)
		}
		items = append(items, stored.Item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}
	return items, nil
}
