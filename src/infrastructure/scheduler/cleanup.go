package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// EventPurger deletes delivery events older than cutoff and reports how many went.
type EventPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob purges old delivery events on a cron schedule.
type CleanupJob struct {
	purger   EventPurger
	ttl      time.Duration
	schedule string
	Logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu sync.Mutex
	c  *cron.Cron
}

func NewCleanupJob(purger EventPurger, ttl time.Duration, schedule string, loggerInstance *logger.Logger, m *metrics.Metrics) *CleanupJob {
	return &CleanupJob{
		purger:   purger,
		ttl:      ttl,
		schedule: schedule,
		Logger:   loggerInstance,
		metrics:  m,
		now:      time.Now,
	}
}

// RunOnce deletes every event older than the retention window.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	if j.ttl <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", j.ttl)
	}
	cutoff := j.now().Add(-j.ttl)
	deleted, err := j.purger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.Logger.Error("Delivery event cleanup failed", zap.Error(err))
		return 0, err
	}
	j.metrics.AddRetentionDeleted(deleted)
	j.Logger.Info("Delivery event cleanup finished", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	return deleted, nil
}

// Start registers the job and starts the cron runner. Overlapping runs are skipped.
func (j *CleanupJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.c != nil {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", j.schedule, err)
	}
	c.Start()
	j.c = c
	j.Logger.Info("Delivery event cleanup scheduled", zap.String("schedule", j.schedule), zap.Duration("retention", j.ttl))
	return nil
}

// Stop halts the runner and waits for a running cleanup to finish.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	c := j.c
	j.c = nil
	j.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
