package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakePurger) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestRunOnce(t *testing.T) {
	purger := &fakePurger{deleted: 7}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	job := NewCleanupJob(purger, 48*time.Hour, "@daily", logger.NewNopLogger(), m)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	deleted, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.Equal(t, now.Add(-48*time.Hour), purger.cutoff)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.RetentionDeleted))
}

func TestRunOnce_Errors(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	job := NewCleanupJob(purger, time.Hour, "@daily", logger.NewNopLogger(), nil)
	_, err := job.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")

	job = NewCleanupJob(purger, 0, "@daily", logger.NewNopLogger(), nil)
	_, err = job.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	job := NewCleanupJob(&fakePurger{}, time.Hour, "@hourly", logger.NewNopLogger(), nil)
	require.NoError(t, job.Start())
	require.NoError(t, job.Start())
	job.Stop()
	job.Stop()

	bad := NewCleanupJob(&fakePurger{}, time.Hour, "not a schedule", logger.NewNopLogger(), nil)
	assert.Error(t, bad.Start())
}
