package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/feedrelay/internal/status"
	"github.com/stacklok/feedrelay/internal/subscriptions"
	"github.com/stacklok/feedrelay/internal/sync/state"
)

//go:generate mockgen -destination=mocks/mock_status_service.go -package=mocks -source=service.go StatusService

// StatusService answers the readiness and status endpoints.
type StatusService interface {
	// CheckReadiness returns an error when the storage backend is unavailable.
	CheckReadiness(ctx context.Context) error
	// Status collects the current relay status.
	Status(ctx context.Context) (*StatusResponse, error)
}

type statusService struct {
	tracker     *status.Tracker
	checkpoints state.CheckpointStore
	registry    subscriptions.Registry
	ping        func(ctx context.Context) error
}

// NewStatusService builds a StatusService over the relay's stores. ping may
// be nil, in which case the service is always ready.
func NewStatusService(
	tracker *status.Tracker,
	checkpoints state.CheckpointStore,
	registry subscriptions.Registry,
	ping func(ctx context.Context) error,
) StatusService {
	return &statusService{
		tracker:     tracker,
		checkpoints: checkpoints,
		registry:    registry,
		ping:        ping,
	}
}

func (s *statusService) CheckReadiness(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	if err := s.ping(ctx); err != nil {
		return fmt.Errorf("storage not ready: %w", err)
	}
	return nil
}

func (s *statusService) Status(ctx context.Context) (*StatusResponse, error) {
	resp := &StatusResponse{}

	checkpoint, err := s.checkpoints.Get(ctx)
	switch {
	case err == nil:
		resp.Checkpoint = &checkpoint
	case errors.Is(err, state.ErrCheckpointNotSeeded):
		// reported as null
	default:
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	ids, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	resp.Subscriptions = len(ids)

	if s.tracker != nil {
		resp.Sync = s.tracker.Get()
	}
	return resp, nil
}
