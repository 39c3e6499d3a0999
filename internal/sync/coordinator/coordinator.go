package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/status"
	pkgsync "github.com/stacklok/feedrelay/internal/sync"
	"github.com/stacklok/feedrelay/internal/telemetry"
)

// ErrAlreadyStarted is returned by a second call to Start
var ErrAlreadyStarted = errors.New("coordinator already started")

// Coordinator runs the synchronization cycle on an interval
type Coordinator interface {
	// Start runs the cycle loop. It blocks until the context is cancelled,
	// Stop is called or a cycle fails for good.
	Start(ctx context.Context) error

	// Stop cancels the loop and waits for it to return
	Stop() error
}

// Policy controls scheduling and retries
type Policy struct {
	Interval       time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// PolicyFromConfig builds a Policy from the sync section
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		Interval:       cfg.Sync.GetInterval(),
		MaxAttempts:    cfg.Sync.GetMaxAttempts(),
		InitialBackoff: cfg.Sync.GetInitialBackoff(),
		MaxBackoff:     cfg.Sync.GetMaxBackoff(),
	}
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager pkgsync.Manager
	policy  Policy

	// Lifecycle management
	started    atomic.Bool
	mu         gosync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}

	tracker     *status.Tracker
	syncMetrics *telemetry.SyncMetrics
	newBackOff  func() backoff.BackOff
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithStatusTracker records every attempt in tracker
func WithStatusTracker(tracker *status.Tracker) Option {
	return func(c *defaultCoordinator) {
		c.tracker = tracker
	}
}

// WithBackOff replaces the exponential backoff between attempts
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *defaultCoordinator) {
		c.newBackOff = newBackOff
	}
}

// New creates a new coordinator
func New(manager pkgsync.Manager, policy Policy, opts ...Option) Coordinator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	c := &defaultCoordinator{
		manager: manager,
		policy:  policy,
		done:    make(chan struct{}),
	}
	c.newBackOff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = c.policy.InitialBackoff
		b.MaxInterval = c.policy.MaxBackoff
		return b
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.tracker == nil {
		c.tracker = status.NewTracker(nil)
	}

	return c
}

// Start runs the cycle loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	slog.Info("Starting background sync coordinator",
		"interval", c.policy.Interval,
		"max_attempts", c.policy.MaxAttempts)

	for {
		if err := c.runCycle(coordCtx); err != nil {
			if coordCtx.Err() != nil {
				return nil
			}
			return fmt.Errorf("sync cycle failed: %w", err)
		}

		timer := time.NewTimer(c.policy.Interval)
		select {
		case <-timer.C:
		case <-coordCtx.Done():
			timer.Stop()
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// runCycle performs one cycle, retrying transient failures within the policy
func (c *defaultCoordinator) runCycle(ctx context.Context) error {
	operation := func() (*pkgsync.Result, error) {
		result, syncErr := c.attempt(ctx)
		if syncErr == nil {
			return result, nil
		}
		if !syncErr.Retryable() || ctx.Err() != nil {
			return nil, backoff.Permanent(syncErr)
		}
		return nil, syncErr
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Sync cycle failed, retrying", "error", err, "retry_in", next)
		}),
	)
	return err
}

// attempt executes the cycle once and records its outcome
func (c *defaultCoordinator) attempt(ctx context.Context) (*pkgsync.Result, *pkgsync.Error) {
	startTime := time.Now()
	c.tracker.Update(ctx, func(s *status.SyncStatus) {
		s.Phase = status.SyncPhaseSyncing
		s.Message = "Sync in progress"
		s.LastAttempt = &startTime
		s.AttemptCount++
	})

	result, syncErr := c.manager.PerformSync(ctx)
	duration := time.Since(startTime)

	if syncErr != nil {
		slog.Error("Sync failed",
			"stage", syncErr.Stage,
			"kind", syncErr.Kind.String(),
			"error", syncErr.Message)
		c.syncMetrics.RecordCycle(ctx, duration, false, string(syncErr.Stage))
		c.tracker.Update(ctx, func(s *status.SyncStatus) {
			s.Phase = status.SyncPhaseFailed
			s.Message = syncErr.Message
			s.Stage = string(syncErr.Stage)
		})
		return nil, syncErr
	}

	c.syncMetrics.RecordCycle(ctx, duration, true, "")
	c.syncMetrics.RecordDelivered(ctx, result.ItemCount, result.MessagesSent, result.Checkpoint)

	now := time.Now()
	c.tracker.Update(ctx, func(s *status.SyncStatus) {
		s.Phase = status.SyncPhaseComplete
		s.Message = "Sync completed successfully"
		s.RunID = result.RunID
		s.Stage = ""
		s.AttemptCount = 0
		s.LastSyncTime = &now
		s.Checkpoint = result.Checkpoint
		s.ItemCount = result.ItemCount
		s.MessagesSent = result.MessagesSent
	})
	return result, nil
}
