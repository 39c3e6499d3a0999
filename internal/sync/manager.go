package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/feedrelay/internal/delivery"
	"github.com/stacklok/feedrelay/internal/feed"
	"github.com/stacklok/feedrelay/internal/otel"
	"github.com/stacklok/feedrelay/internal/subscriptions"
	"github.com/stacklok/feedrelay/internal/sync/state"
	"github.com/stacklok/feedrelay/internal/sync/writer"
	"github.com/stacklok/feedrelay/internal/walker"
)

// ErrCheckpointExhausted is returned when the checkpoint already holds the
// largest possible sequence, so no boundary above it exists.
var ErrCheckpointExhausted = errors.New("checkpoint is at the maximum sequence")

// Result contains the result of a successful sync cycle
type Result struct {
	RunID        string
	Boundary     uint32
	ItemCount    int
	Checkpoint   uint32
	Destinations int
	MessagesSent int
}

// Stage names the step of a cycle that failed
type Stage string

// Cycle stages, in execution order
const (
	StageCheckpointRead  Stage = "checkpoint-read"
	StageWalk            Stage = "walk"
	StageSubscriptions   Stage = "subscriptions"
	StageDelivery        Stage = "delivery"
	StagePersist         Stage = "persist"
	StageCheckpointWrite Stage = "checkpoint-write"
)

// Kind classifies a failure for the retry policy
type Kind int

const (
	// KindTransient failures may succeed when the cycle is retried
	KindTransient Kind = iota
	// KindFatal failures need operator action
	KindFatal
)

func (k Kind) String() string {
	if k == KindFatal {
		return "fatal"
	}
	return "transient"
}

// Error represents a failed cycle with the stage and kind of the failure
type Error struct {
	Err     error
	Message string
	Stage   Stage
	Kind    Kind
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether running the cycle again may succeed
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient
}

// FeedWalker collects feed items with a sequence at or above boundary
type FeedWalker interface {
	Walk(ctx context.Context, boundary uint32) ([]feed.Item, error)
}

// Manager runs synchronization cycles
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/feedrelay/internal/sync Manager
type Manager interface {
	// PerformSync runs one complete cycle
	PerformSync(ctx context.Context) (*Result, *Error)
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	checkpoints  state.CheckpointStore
	walker       FeedWalker
	registry     subscriptions.Registry
	sink         delivery.Sink
	writer       writer.ItemWriter
	messageLimit int
	tracer       trace.Tracer
	newRunID     func() string
}

// Option configures the default manager
type Option func(*defaultSyncManager)

// WithTracer records a span per cycle and per stage
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// WithMessageLimit sets the maximum rendered message length. Zero disables
// truncation.
func WithMessageLimit(limit int) Option {
	return func(m *defaultSyncManager) {
		m.messageLimit = limit
	}
}

// WithRunIDGenerator overrides how cycle IDs are generated
func WithRunIDGenerator(gen func() string) Option {
	return func(m *defaultSyncManager) {
		m.newRunID = gen
	}
}

// NewDefaultSyncManager creates a new defaultSyncManager
func NewDefaultSyncManager(
	checkpoints state.CheckpointStore,
	feedWalker FeedWalker,
	registry subscriptions.Registry,
	sink delivery.Sink,
	itemWriter writer.ItemWriter,
	opts ...Option,
) Manager {
	m := &defaultSyncManager{
		checkpoints:  checkpoints,
		walker:       feedWalker,
		registry:     registry,
		sink:         sink,
		writer:       itemWriter,
		messageLimit: delivery.DiscordMessageLimit,
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PerformSync runs one cycle. Nothing after a failed stage runs.
func (m *defaultSyncManager) PerformSync(ctx context.Context) (*Result, *Error) {
	runID := m.newRunID()
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.PerformSync",
		trace.WithAttributes(otel.AttrRunID.String(runID)),
	)
	defer span.End()
	logger := slog.With("runID", runID)

	last, err := m.checkpoints.Get(ctx)
	if err != nil {
		return nil, m.fail(span, StageCheckpointRead, err, "failed to read checkpoint")
	}
	if last == math.MaxUint32 {
		return nil, m.fail(span, StageCheckpointRead, ErrCheckpointExhausted, "failed to compute boundary")
	}
	boundary := last + 1
	span.SetAttributes(otel.AttrBoundary.Int64(int64(boundary)))

	result := &Result{RunID: runID, Boundary: boundary, Checkpoint: last}

	logger.Info("Walking feed", "boundary", boundary)
	items, err := m.walk(ctx, boundary)
	if err != nil {
		return nil, m.fail(span, StageWalk, err, "failed to walk feed")
	}
	if len(items) == 0 {
		logger.Info("No new items", "boundary", boundary)
		return result, nil
	}
	result.ItemCount = len(items)
	span.SetAttributes(otel.AttrItemCount.Int(len(items)))

	destinations, err := m.registry.List(ctx)
	if err != nil {
		return nil, m.fail(span, StageSubscriptions, err, "failed to list subscriptions")
	}
	result.Destinations = len(destinations)
	span.SetAttributes(otel.AttrDestinations.Int(len(destinations)))

	ordered := feed.Ascending(items)
	sent, err := m.deliver(ctx, destinations, ordered)
	result.MessagesSent = sent
	if err != nil {
		return nil, m.fail(span, StageDelivery, err, "failed to deliver items")
	}

	if err := m.persist(ctx, ordered); err != nil {
		return nil, m.fail(span, StagePersist, err, "failed to store items")
	}

	highest, _ := feed.MaxSequence(ordered)
	if err := m.checkpoints.Set(ctx, highest); err != nil {
		return nil, m.fail(span, StageCheckpointWrite, err, "failed to advance checkpoint")
	}
	result.Checkpoint = highest
	span.SetAttributes(otel.AttrCheckpoint.Int64(int64(highest)))

	logger.Info("Sync cycle completed",
		"boundary", boundary,
		"items", result.ItemCount,
		"destinations", result.Destinations,
		"messages", result.MessagesSent,
		"checkpoint", highest)
	return result, nil
}

func (m *defaultSyncManager) walk(ctx context.Context, boundary uint32) ([]feed.Item, error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.walk")
	defer span.End()

	items, err := m.walker.Walk(ctx, boundary)
	otel.RecordError(span, err)
	return items, err
}

// deliver sends every item, oldest first, to each destination in turn and
// returns the number of messages sent before any failure.
func (m *defaultSyncManager) deliver(ctx context.Context, destinations []string, items []feed.Item) (int, error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.deliver")
	defer span.End()

	sent := 0
	for _, dest := range destinations {
		for _, item := range items {
			if err := m.sink.Send(ctx, dest, feed.RenderMessage(item, m.messageLimit)); err != nil {
				span.SetAttributes(otel.AttrDestination.String(dest))
				otel.RecordError(span, err)
				return sent, fmt.Errorf("item %d: %w", item.Sequence, err)
			}
			sent++
		}
	}
	return sent, nil
}

func (m *defaultSyncManager) persist(ctx context.Context, items []feed.Item) error {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.persist")
	defer span.End()

	err := m.writer.Store(ctx, items)
	otel.RecordError(span, err)
	return err
}

func (*defaultSyncManager) fail(span trace.Span, stage Stage, err error, message string) *Error {
	kind := classify(err)
	otel.RecordError(span, err)
	span.SetAttributes(otel.AttrStage.String(string(stage)))
	return &Error{
		Err:     err,
		Message: fmt.Sprintf("%s: %v", message, err),
		Stage:   stage,
		Kind:    kind,
	}
}

// classify decides whether err can go away without operator action.
func classify(err error) Kind {
	switch {
	case errors.Is(err, walker.ErrShapeMismatch),
		errors.Is(err, state.ErrCheckpointNotSeeded),
		errors.Is(err, ErrCheckpointExhausted):
		return KindFatal
	default:
		return KindTransient
	}
}
