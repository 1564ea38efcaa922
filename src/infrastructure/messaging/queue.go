package messaging

import (
	"context"
	"fmt"
	"sync"

	"go-campaign-dispatcher/src/domain/ratelimit"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Task is one unit of work admitted by a CountryQueue.
type Task func()

// QueueStats is a point-in-time view of a queue.
type QueueStats struct {
	CountryCode    string `json:"countryCode"`
	MaxPerSecond   int    `json:"maxPerSecond"`
	MaxConcurrency int    `json:"maxConcurrency"`
	Pending        int    `json:"pending"`
	InFlight       int    `json:"inFlight"`
}

// CountryQueue admits tasks in FIFO order under a per-second start rate and a cap on
// concurrently executing tasks. Workers are started on demand and exit when the queue drains.
type CountryQueue struct {
	countryCode string
	limiter     *rate.Limiter
	Logger      *logger.Logger
	metrics     *metrics.Metrics

	mu          sync.Mutex
	limits      ratelimit.Limits
	pending     []Task
	workers     int
	inFlight    int
	outstanding int
	idle        chan struct{}
}

func NewCountryQueue(countryCode string, limits ratelimit.Limits, loggerInstance *logger.Logger, m *metrics.Metrics) *CountryQueue {
	limits = sanitizeLimits(limits)
	return &CountryQueue{
		countryCode: countryCode,
		limits:      limits,
		// burst 1 spaces starts at least 1/maxPerSecond apart, so no 1s window sees more than maxPerSecond
		limiter: rate.NewLimiter(rate.Limit(limits.MaxPerSecond), 1),
		Logger:  loggerInstance,
		metrics: m,
	}
}

func sanitizeLimits(limits ratelimit.Limits) ratelimit.Limits {
	if limits.MaxPerSecond < 1 {
		limits.MaxPerSecond = 1
	}
	if limits.MaxConcurrency < 1 {
		limits.MaxConcurrency = 1
	}
	return limits
}

func (q *CountryQueue) CountryCode() string {
	return q.countryCode
}

func (q *CountryQueue) Limits() ratelimit.Limits {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.limits
}

// Enqueue adds a task and returns immediately.
func (q *CountryQueue) Enqueue(task Task) {
	q.mu.Lock()
	q.pending = append(q.pending, task)
	if q.outstanding == 0 {
		q.idle = make(chan struct{})
	}
	q.outstanding++
	spawn := q.workers < q.limits.MaxConcurrency
	if spawn {
		q.workers++
	}
	q.reportLocked()
	q.mu.Unlock()

	if spawn {
		go q.worker()
	}
}

// Idle blocks until every queued and in-flight task has finished, including tasks
// enqueued by other callers sharing this queue.
func (q *CountryQueue) Idle(ctx context.Context) error {
	q.mu.Lock()
	if q.outstanding == 0 {
		q.mu.Unlock()
		return nil
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *CountryQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		CountryCode:    q.countryCode,
		MaxPerSecond:   q.limits.MaxPerSecond,
		MaxConcurrency: q.limits.MaxConcurrency,
		Pending:        len(q.pending),
		InFlight:       q.inFlight,
	}
}

// reconfigure swaps the limits of an idle queue.
func (q *CountryQueue) reconfigure(limits ratelimit.Limits) error {
	limits = sanitizeLimits(limits)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.outstanding > 0 {
		return ErrQueueBusy
	}
	q.limits = limits
	q.limiter.SetLimit(rate.Limit(limits.MaxPerSecond))
	return nil
}

func (q *CountryQueue) worker() {
	for {
		q.mu.Lock()
		// a worker left over from before a reconfigure must not exceed the new ceiling
		if len(q.pending) == 0 || q.workers > q.limits.MaxConcurrency {
			q.workers--
			q.mu.Unlock()
			return
		}
		task := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		// Wait only fails for a cancelled context or n > burst; neither applies here.
		_ = q.limiter.Wait(context.Background())

		q.mu.Lock()
		q.inFlight++
		q.reportLocked()
		q.mu.Unlock()

		q.run(task)

		q.mu.Lock()
		q.inFlight--
		q.outstanding--
		if q.outstanding == 0 {
			close(q.idle)
		}
		q.reportLocked()
		q.mu.Unlock()
	}
}

func (q *CountryQueue) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.Logger.Error("Dispatch task panicked",
				zap.String("countryCode", q.countryCode),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}

func (q *CountryQueue) reportLocked() {
	q.metrics.SetQueueDepth(q.countryCode, len(q.pending), q.inFlight)
}
