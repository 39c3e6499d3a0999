package walker

import (
	"context"
	"errors"
	"strings"
)

// ErrShapeMismatch reports that the feed no longer has the structure the
// selectors describe. It is not retryable.
var ErrShapeMismatch = errors.New("feed shape mismatch")

// Element is a handle to one node of the extraction surface.
type Element interface {
	// Interactable reports whether the element can currently receive a click.
	Interactable(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// Frame is the embedded view of a single post.
type Frame interface {
	PostBody(ctx context.Context) (Element, error)
	Timestamp(ctx context.Context) (Element, error)
	PermalinkAnchor(ctx context.Context) (Element, error)
	// Exit returns lookups to the top-level document.
	Exit(ctx context.Context) error
}

// Session is an exclusive, authenticated extraction session on the feed.
// Single-element lookups return an error wrapping ErrShapeMismatch when the
// element cannot be found.
type Session interface {
	// PostActions returns every post action affordance currently loaded.
	PostActions(ctx context.Context) ([]Element, error)
	EmbedControl(ctx context.Context) (Element, error)
	EnterEmbed(ctx context.Context) (Frame, error)
	DismissControl(ctx context.Context) (Element, error)
	Close() error
}

// Surface opens extraction sessions.
type Surface interface {
	Open(ctx context.Context) (Session, error)
}

// Selector is a CSS selector or, when it starts with "/" or "(", an XPath
// expression.
type Selector string

// IsXPath reports whether the selector is an XPath expression.
func (s Selector) IsXPath() bool {
	return strings.HasPrefix(string(s), "/") || strings.HasPrefix(string(s), "(")
}

// Selectors names every query the walker needs from the feed.
type Selectors struct {
	PostActions     Selector `yaml:"postActions,omitempty"`
	EmbedControl    Selector `yaml:"embedControl,omitempty"`
	EmbeddedFrame   Selector `yaml:"embeddedFrame,omitempty"`
	PostBody        Selector `yaml:"postBody,omitempty"`
	Timestamp       Selector `yaml:"timestamp,omitempty"`
	PermalinkAnchor Selector `yaml:"permalinkAnchor,omitempty"`
	DismissControl  Selector `yaml:"dismissControl,omitempty"`

	// TimestampAttribute holds epoch seconds on the Timestamp element.
	TimestampAttribute string `yaml:"timestampAttribute,omitempty"`
	// PermalinkAttribute holds the post URL on the PermalinkAnchor element.
	PermalinkAttribute string `yaml:"permalinkAttribute,omitempty"`
}

// DefaultSelectors returns selectors for the Facebook page embed layout.
func DefaultSelectors() Selectors {
	return Selectors{
		PostActions:        `[aria-label="Actions for this post"]`,
		EmbedControl:       `//*[text() = 'Embed']`,
		EmbeddedFrame:      `iframe[allowfullscreen]`,
		PostBody:           `.userContent`,
		Timestamp:          `abbr.timestamp`,
		PermalinkAnchor:    `a:has(abbr.timestamp)`,
		DismissControl:     `[aria-label="Close"]`,
		TimestampAttribute: "data-utime",
		PermalinkAttribute: "href",
	}
}

// WithDefaults fills every empty field from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *Selector, def Selector) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.PostActions, d.PostActions)
	fill(&s.EmbedControl, d.EmbedControl)
	fill(&s.EmbeddedFrame, d.EmbeddedFrame)
	fill(&s.PostBody, d.PostBody)
	fill(&s.Timestamp, d.Timestamp)
	fill(&s.PermalinkAnchor, d.PermalinkAnchor)
	fill(&s.DismissControl, d.DismissControl)
	if s.TimestampAttribute == "" {
		s.TimestampAttribute = d.TimestampAttribute
	}
	if s.PermalinkAttribute == "" {
		s.PermalinkAttribute = d.PermalinkAttribute
	}
	return s
}
