// Package scheduler runs the periodic maintenance jobs of the API process.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"vaultshare/internal/domain/file"
)

const (
	JobCleanup       = "cleanup"
	JobExpiryNotices = "expiry_notices"

	jobTimeout = 10 * time.Minute
)

type cleaner interface {
	Run(ctx context.Context) (*file.CleanupStats, error)
	NotifyExpiring(ctx context.Context) (int, error)
}

// Scheduler wraps a gocron scheduler. Jobs never overlap with themselves.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cleanup   cleaner
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(cleanup cleaner, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		cleanup:   cleanup,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register adds the cleanup sweep and the expiry notices, both running
// every interval starting now.
func (s *Scheduler) Register() error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: interval must be > 0")
	}
	if _, err := s.scheduler.Every(s.interval).Tag(JobCleanup).Do(s.runCleanup); err != nil {
		return fmt.Errorf("scheduler: register %s: %w", JobCleanup, err)
	}
	if _, err := s.scheduler.Every(s.interval).Tag(JobExpiryNotices).Do(s.runExpiryNotices); err != nil {
		return fmt.Errorf("scheduler: register %s: %w", JobExpiryNotices, err)
	}
	log.Printf("scheduler_registered jobs=%d interval=%s", len(s.scheduler.Jobs()), s.interval)
	return nil
}

func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")
	s.scheduler.StartAsync()
}

// Stop waits for running jobs and cancels their context.
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cancel()
	s.scheduler.Stop()
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	stats, err := s.cleanup.Run(ctx)
	if err != nil {
		log.Printf("job_failed job=%s err=%v", JobCleanup, err)
		return
	}
	log.Printf("job_done job=%s scanned=%d deleted=%d purged=%d failed=%d", JobCleanup, stats.Scanned, stats.Deleted, stats.Purged, stats.Failed)
}

func (s *Scheduler) runExpiryNotices() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	n, err := s.cleanup.NotifyExpiring(ctx)
	if err != nil {
		log.Printf("job_failed job=%s err=%v", JobExpiryNotices, err)
		return
	}
	log.Printf("job_done job=%s notified=%d", JobExpiryNotices, n)
}
