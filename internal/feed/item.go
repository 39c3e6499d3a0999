package feed

import (
	"cmp"
	"slices"
	"time"
)

// Item is a single post harvested from the feed.
type Item struct {
	// Sequence is the post number the feed assigns itself. It is unique and
	// grows with publication order.
	Sequence uint32 `json:"sequence"`

	// Text is the full post body, including its leading sequence token.
	Text string `json:"post_text"`

	// PublishedAt and PublishedUnix are both derived from the same
	// epoch-seconds attribute on the post.
	PublishedAt   time.Time `json:"published_at"`
	PublishedUnix int64     `json:"published_unix"`

	// Permalink is the absolute URL of the post.
	Permalink string `json:"permalink"`

	// SourceID is the final path segment of Permalink.
	SourceID string `json:"source_id"`
}

// Ascending returns a copy of items sorted by increasing sequence.
func Ascending(items []Item) []Item {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b Item) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	return sorted
}

// MaxSequence returns the highest sequence in items. The boolean is false
// when items is empty.
func MaxSequence(items []Item) (uint32, bool) {
	if len(items) == 0 {
		return 0, false
	}
	highest := items[0].Sequence
	for _, item := range items[1:] {
		highest = max(highest, item.Sequence)
	}
	return highest, true
}
