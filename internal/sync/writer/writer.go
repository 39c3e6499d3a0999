// Package writer persists harvested items as an append-only batch store.
package writer

import (
	"context"

	"github.com/stacklok/feedrelay/internal/feed"
)

//go:generate mockgen -destination=mocks/mock_item_writer.go -package=mocks -source=writer.go ItemWriter

// ItemWriter stores the items of one sync cycle.
type ItemWriter interface {
	// Store appends items as a single batch, in the given order. Items whose
	// sequence is already stored are skipped, so a cycle that is replayed
	// after a crash does not fail.
	Store(ctx context.Context, items []feed.Item) error
}
