package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"inovacode-contact-api/internal/config"
	"inovacode-contact-api/internal/metrics"
	"inovacode-contact-api/internal/model"
	"inovacode-contact-api/internal/repository"
)

// Scheduler runs the periodic maintenance cycle: it refreshes the contact
// gauges and purges soft-deleted contacts past the retention window.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	repo      repository.ContactRepository
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, repo repository.ContactRepository, m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		config:  cfg,
		repo:    repo,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	// Schedule the job to run every N minutes
	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	entryID, err := s.cron.AddFunc(schedule, s.runMaintenance)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Maintenance scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	// Cancel context to stop any running operations
	s.cancel()

	// Stop the cron scheduler
	ctx := s.cron.Stop()

	// Wait for all jobs to complete
	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// runMaintenance is the maintenance function that runs periodically
func (s *Scheduler) runMaintenance() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping maintenance cycle")
		return
	}
	s.mu.RUnlock()

	startTime := time.Now()

	s.refreshGauges()
	s.purgeExpired()

	logrus.Infof("Maintenance cycle completed in %v", time.Since(startTime))
}

// refreshGauges updates the pending/total contact gauges
func (s *Scheduler) refreshGauges() {
	pending, err := s.repo.CountByStatus(s.ctx, model.StatusPending)
	if err != nil {
		logrus.Errorf("Failed to count pending contacts: %v", err)
	} else {
		s.metrics.PendingContacts.Set(float64(pending))
	}

	total, err := s.repo.Count(s.ctx)
	if err != nil {
		logrus.Errorf("Failed to count contacts: %v", err)
	} else {
		s.metrics.TotalContacts.Set(float64(total))
	}
}

// purgeExpired drops soft-deleted contacts past the retention window
func (s *Scheduler) purgeExpired() {
	if s.config.RetentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	purged, err := s.repo.PurgeDeletedBefore(s.ctx, cutoff)
	if err != nil {
		logrus.Errorf("Failed to purge expired contacts: %v", err)
		return
	}
	if purged > 0 {
		logrus.Infof("Purged %d contacts deleted before %s", purged, cutoff.Format(time.RFC3339))
	}
}

// RunOnce runs the maintenance cycle once (for manual triggering)
func (s *Scheduler) RunOnce() error {
	logrus.Info("Running maintenance once")
	s.runMaintenance()
	return nil
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// Wait waits for the scheduler to stop
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
