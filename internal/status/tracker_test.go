package status_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/feedrelay/internal/status"
	"github.com/stacklok/feedrelay/internal/status/mocks"
)

func TestTracker_LoadResetsInterruptedSync(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	persistence := mocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().LoadStatus(gomock.Any()).Return(&status.SyncStatus{
		Phase:      status.SyncPhaseSyncing,
		Checkpoint: 42,
	}, nil)

	tracker := status.NewTracker(persistence)
	require.NoError(t, tracker.Load(context.Background()))

	current := tracker.Get()
	assert.Equal(t, status.SyncPhaseFailed, current.Phase)
	assert.Equal(t, uint32(42), current.Checkpoint)
	assert.NotEmpty(t, current.Message)
}

func TestTracker_LoadError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	persistence := mocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().LoadStatus(gomock.Any()).Return(nil, errors.New("disk gone"))

	tracker := status.NewTracker(persistence)
	require.Error(t, tracker.Load(context.Background()))
}

func TestTracker_UpdatePersists(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	persistence := mocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().SaveStatus(gomock.Any(), &status.SyncStatus{
		Phase:      status.SyncPhaseComplete,
		Checkpoint: 7,
	}).Return(nil)

	tracker := status.NewTracker(persistence)
	tracker.Update(context.Background(), func(s *status.SyncStatus) {
		s.Phase = status.SyncPhaseComplete
		s.Checkpoint = 7
	})

	assert.Equal(t, uint32(7), tracker.Get().Checkpoint)
}

func TestTracker_UpdateSurvivesSaveFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	persistence := mocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().SaveStatus(gomock.Any(), gomock.Any()).Return(errors.New("read-only"))

	tracker := status.NewTracker(persistence)
	tracker.Update(context.Background(), func(s *status.SyncStatus) {
		s.Phase = status.SyncPhaseFailed
	})

	assert.Equal(t, status.SyncPhaseFailed, tracker.Get().Phase)
}

func TestTracker_InMemoryConcurrent(t *testing.T) {
	t.Parallel()

	tracker := status.NewTracker(nil)
	require.NoError(t, tracker.Load(context.Background()))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Update(context.Background(), func(s *status.SyncStatus) {
				s.AttemptCount++
			})
			_ = tracker.Get()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, tracker.Get().AttemptCount)
}
