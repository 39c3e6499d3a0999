package walker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/feedrelay/internal/feed"
	"github.com/stacklok/feedrelay/internal/otel"
)

// Walker collects feed items newer than a boundary.
type Walker struct {
	surface       Surface
	rootURL       *url.URL
	timestampAttr string
	permalinkAttr string
	tracer        trace.Tracer
}

// Option configures a Walker.
type Option func(*Walker)

// WithTracer records a span per walk.
func WithTracer(tracer trace.Tracer) Option {
	return func(w *Walker) {
		w.tracer = tracer
	}
}

// New creates a Walker over surface. rootURL is used to make permalinks
// absolute and selectors supplies the attribute names to read.
func New(surface Surface, rootURL *url.URL, selectors Selectors, opts ...Option) *Walker {
	selectors = selectors.WithDefaults()
	w := &Walker{
		surface:       surface,
		rootURL:       rootURL,
		timestampAttr: selectors.TimestampAttribute,
		permalinkAttr: selectors.PermalinkAttribute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// extraction is the outcome of opening a single post action.
type extraction struct {
	item          feed.Item
	skipped       bool
	belowBoundary bool
}

// Walk returns every item with a sequence at or above boundary, newest first.
// The session it opens is always closed before Walk returns.
func (w *Walker) Walk(ctx context.Context, boundary uint32) (_ []feed.Item, retErr error) {
	ctx, span := otel.StartSpan(ctx, w.tracer, "walker.Walk",
		trace.WithAttributes(otel.AttrBoundary.Int64(int64(boundary))),
	)
	defer func() {
		otel.RecordError(span, retErr)
		span.End()
	}()

	session, err := w.surface.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open extraction session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			slog.Warn("Failed to close extraction session", "error", closeErr)
		}
	}()

	var (
		items    []feed.Item
		seen     = make(map[uint32]struct{})
		earliest = uint64(math.MaxUint64)
		numSeen  int
	)

	for earliest > uint64(boundary) {
		actions, err := session.PostActions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query post actions: %w", err)
		}
		if len(actions) <= numSeen {
			slog.Info("Feed stopped growing before reaching boundary",
				"boundary", boundary,
				"postActions", len(actions),
				"collected", len(items))
			break
		}

		for _, action := range actions[numSeen:] {
			post, err := w.extract(ctx, session, action, boundary)
			if err != nil {
				return nil, err
			}
			if post.skipped {
				continue
			}

			earliest = min(earliest, uint64(post.item.Sequence))
			if post.belowBoundary {
				slog.Debug("Reached boundary", "boundary", boundary, "sequence", post.item.Sequence)
				break
			}
			if _, dup := seen[post.item.Sequence]; dup {
				continue
			}
			seen[post.item.Sequence] = struct{}{}
			items = append(items, post.item)
		}

		numSeen = len(actions)
	}

	span.SetAttributes(otel.AttrItemCount.Int(len(items)))
	return items, nil
}

// extract opens the embed view behind one post action, reads the post and
// closes the view again.
func (w *Walker) extract(ctx context.Context, session Session, action Element, boundary uint32) (extraction, error) {
	ok, err := action.Interactable(ctx)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to inspect post action: %w", err)
	}
	if !ok {
		slog.Debug("Skipping post action that cannot be clicked")
		return extraction{skipped: true}, nil
	}
	if err := action.Click(ctx); err != nil {
		return extraction{}, fmt.Errorf("failed to open post actions: %w", err)
	}

	embed, err := session.EmbedControl(ctx)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to find embed control: %w", err)
	}
	if err := embed.Click(ctx); err != nil {
		return extraction{}, fmt.Errorf("failed to open embed view: %w", err)
	}

	frame, err := session.EnterEmbed(ctx)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to enter embedded post: %w", err)
	}

	post, err := w.readPost(ctx, frame, boundary)
	if err != nil {
		return extraction{}, err
	}

	if err := frame.Exit(ctx); err != nil {
		return extraction{}, fmt.Errorf("failed to leave embedded post: %w", err)
	}
	dismiss, err := session.DismissControl(ctx)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to find dismiss control: %w", err)
	}
	if err := dismiss.Click(ctx); err != nil {
		return extraction{}, fmt.Errorf("failed to dismiss embed view: %w", err)
	}

	return post, nil
}

func (w *Walker) readPost(ctx context.Context, frame Frame, boundary uint32) (extraction, error) {
	body, err := frame.PostBody(ctx)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to find post body: %w", err)
	}
	text, err := body.Text(ctx)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to read post body: %w", err)
	}
	seq, err := feed.ParseSequence(text)
	if err != nil {
		return extraction{}, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
	}
	if seq < boundary {
		return extraction{item: feed.Item{Sequence: seq}, belowBoundary: true}, nil
	}

	stamp, err := frame.Timestamp(ctx)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to find post timestamp: %w", err)
	}
	rawTime, err := w.requireAttribute(ctx, stamp, w.timestampAttr)
	if err != nil {
		return extraction{}, err
	}
	publishedAt, publishedUnix, err := feed.ParseUnixSeconds(rawTime)
	if err != nil {
		return extraction{}, fmt.Errorf("%w: post %d: %w", ErrShapeMismatch, seq, err)
	}

	anchor, err := frame.PermalinkAnchor(ctx)
	if err != nil {
		return extraction{}, fmt.Errorf("failed to find post permalink: %w", err)
	}
	href, err := w.requireAttribute(ctx, anchor, w.permalinkAttr)
	if err != nil {
		return extraction{}, err
	}
	permalink, sourceID, err := feed.ResolvePermalink(w.rootURL, href)
	if err != nil {
		return extraction{}, fmt.Errorf("%w: post %d: %w", ErrShapeMismatch, seq, err)
	}

	return extraction{item: feed.Item{
		Sequence:      seq,
		Text:          text,
		PublishedAt:   publishedAt,
		PublishedUnix: publishedUnix,
		Permalink:     permalink,
		SourceID:      sourceID,
	}}, nil
}

func (*Walker) requireAttribute(ctx context.Context, el Element, name string) (string, error) {
	value, ok, err := el.Attribute(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: attribute %s is missing", ErrShapeMismatch, name)
	}
	return value, nil
}
