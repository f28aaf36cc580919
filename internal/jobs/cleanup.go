// Package jobs runs scheduled maintenance in the background of the server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"alcyxob/photo-portfolio/internal/metrics"
	"alcyxob/photo-portfolio/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultRunTimeout bounds a single scheduled cleanup run.
const DefaultRunTimeout = 10 * time.Minute

// OrphanCleaner is the part of the admin service the cleanup job needs.
type OrphanCleaner interface {
	CleanupOrphans(ctx context.Context) (*service.CleanupReport, error)
}

// CleanupJob periodically deletes orphaned upload objects.
type CleanupJob struct {
	cleaner    OrphanCleaner
	schedule   string
	runTimeout time.Duration
	cron       *cron.Cron
	log        *logrus.Entry
}

// NewCleanupJob creates the job. An empty schedule yields a job whose
// Start is a no-op.
func NewCleanupJob(cleaner OrphanCleaner, schedule string, log *logrus.Logger) *CleanupJob {
	return &CleanupJob{
		cleaner:    cleaner,
		schedule:   schedule,
		runTimeout: DefaultRunTimeout,
		log:        log.WithField("job", "orphan-cleanup"),
	}
}

// Enabled reports whether a schedule is configured.
func (j *CleanupJob) Enabled() bool {
	return j.schedule != ""
}

// Start parses the schedule and begins running the job in its own goroutine.
func (j *CleanupJob) Start() error {
	if !j.Enabled() {
		j.log.Info("no schedule configured, orphan cleanup job disabled")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.schedule, j.runScheduled); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", j.schedule, err)
	}
	j.cron = c
	c.Start()
	j.log.WithField("schedule", j.schedule).Info("orphan cleanup job started")
	return nil
}

// Stop waits for a running cleanup to finish or for ctx to expire.
func (j *CleanupJob) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	done := j.cron.Stop()
	select {
	case <-done.Done():
		j.log.Info("orphan cleanup job stopped")
	case <-ctx.Done():
		j.log.Warn("orphan cleanup job still running at shutdown")
	}
}

func (j *CleanupJob) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), j.runTimeout)
	defer cancel()
	_ = j.Run(ctx)
}

// Run performs a single cleanup pass and records its outcome.
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	report, err := j.cleaner.CleanupOrphans(ctx)
	if err != nil {
		metrics.RecordOrphanCleanup("scheduled", 0, false)
		j.log.WithError(err).WithField("duration", time.Since(start).String()).Error("orphan cleanup failed")
		return err
	}

	metrics.RecordOrphanCleanup("scheduled", report.DeletedObjects, true)
	j.log.WithFields(logrus.Fields{
		"deletedObjects":  report.DeletedObjects,
		"freed":           report.FreedHuman,
		"prunedFiles":     report.PrunedFiles,
		"deletedMetadata": len(report.DeletedMetadata),
		"duration":        time.Since(start).String(),
	}).Info("orphan cleanup completed")
	return nil
}
