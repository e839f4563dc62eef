package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inovacode-contact-api/internal/config"
	"inovacode-contact-api/internal/metrics"
	"inovacode-contact-api/internal/model"
)

// Prometheus collectors register globally, so the package shares one instance.
var testMetrics = metrics.NewMetrics()

type fakeRepo struct {
	mu          sync.Mutex
	pending     int64
	total       int64
	purged      int64
	purgeCutoff time.Time
	purgeCalls  int
}

func (r *fakeRepo) Create(ctx context.Context, contact *model.Contact) error { return nil }

func (r *fakeRepo) List(ctx context.Context, opts model.ListOptions) ([]model.Contact, error) {
	return nil, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id uint, status string) error { return nil }

func (r *fakeRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, nil
}

func (r *fakeRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, nil
}

func (r *fakeRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeCalls++
	r.purgeCutoff = cutoff
	return r.purged, nil
}

func newTestScheduler(repo *fakeRepo) *Scheduler {
	cfg := &config.SchedulerConfig{IntervalMinutes: 5, RetentionDays: 90}
	return NewScheduler(cfg, repo, testMetrics)
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(&fakeRepo{})

	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	// Starting twice is an error
	assert.Error(t, s.Start())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	// Stopping a stopped scheduler is a no-op
	require.NoError(t, s.Stop())
}

func TestRunOnceRefreshesGaugesAndPurges(t *testing.T) {
	repo := &fakeRepo{pending: 3, total: 10, purged: 2}
	s := newTestScheduler(repo)

	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.RunOnce())
	s.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 1, repo.purgeCalls)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -90), repo.purgeCutoff, time.Minute)
}

func TestMaintenanceSkippedWhenStopped(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestScheduler(repo)

	require.NoError(t, s.RunOnce())
	s.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 0, repo.purgeCalls)
}

func TestPurgeDisabledWithoutRetention(t *testing.T) {
	repo := &fakeRepo{pending: 1, total: 1}
	cfg := &config.SchedulerConfig{IntervalMinutes: 5, RetentionDays: 0}
	s := NewScheduler(cfg, repo, testMetrics)

	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.RunOnce())
	s.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 0, repo.purgeCalls)
}

func TestSchedulerRestart(t *testing.T) {
	s := newTestScheduler(&fakeRepo{})

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	// The context is cancelled on stop, so a restart needs a fresh scheduler
	s2 := newTestScheduler(&fakeRepo{})
	require.NoError(t, s2.Start())
	assert.True(t, s2.IsRunning())
	require.NoError(t, s2.Stop())
}
