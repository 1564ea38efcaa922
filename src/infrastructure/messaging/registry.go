package messaging

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/metrics"

	"go.uber.org/zap"
)

var ErrQueueBusy = errors.New("country queue has pending or in-flight work")

type queueEntry struct {
	once  sync.Once
	queue atomic.Pointer[CountryQueue]
}

// QueueRegistry owns at most one CountryQueue per country code. A queue keeps the
// limits resolved when it was created until Refresh is called on it.
type QueueRegistry struct {
	resolver PolicyResolver
	Logger   *logger.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	entries map[string]*queueEntry
}

func NewQueueRegistry(resolver PolicyResolver, loggerInstance *logger.Logger, m *metrics.Metrics) *QueueRegistry {
	return &QueueRegistry{
		resolver: resolver,
		Logger:   loggerInstance,
		metrics:  m,
		entries:  make(map[string]*queueEntry),
	}
}

// Get returns the queue for countryCode, creating it on first use.
func (r *QueueRegistry) Get(ctx context.Context, countryCode string) *CountryQueue {
	r.mu.Lock()
	entry, ok := r.entries[countryCode]
	if !ok {
		entry = &queueEntry{}
		r.entries[countryCode] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		limits := r.resolver.Resolve(ctx, countryCode)
		entry.queue.Store(NewCountryQueue(countryCode, limits, r.Logger, r.metrics))
		r.Logger.Info("Created country dispatch queue",
			zap.String("countryCode", countryCode),
			zap.Int("maxPerSecond", limits.MaxPerSecond),
			zap.Int("maxConcurrency", limits.MaxConcurrency))
	})
	return entry.queue.Load()
}

// Refresh re-resolves the limits of an existing queue. It fails with ErrQueueBusy while
// the queue has work; a code without a queue is a no-op.
func (r *QueueRegistry) Refresh(ctx context.Context, countryCode string) error {
	r.mu.Lock()
	entry, ok := r.entries[countryCode]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	queue := entry.queue.Load()
	if queue == nil {
		return ErrQueueBusy
	}

	limits := r.resolver.Resolve(ctx, countryCode)
	if err := queue.reconfigure(limits); err != nil {
		return err
	}
	r.Logger.Info("Refreshed country dispatch queue",
		zap.String("countryCode", countryCode),
		zap.Int("maxPerSecond", limits.MaxPerSecond),
		zap.Int("maxConcurrency", limits.MaxConcurrency))
	return nil
}

// Snapshot lists every queue sorted by country code.
func (r *QueueRegistry) Snapshot() []QueueStats {
	r.mu.Lock()
	queues := make([]*CountryQueue, 0, len(r.entries))
	for _, entry := range r.entries {
		if q := entry.queue.Load(); q != nil {
			queues = append(queues, q)
		}
	}
	r.mu.Unlock()

	stats := make([]QueueStats, 0, len(queues))
	for _, q := range queues {
		stats = append(stats, q.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].CountryCode < stats[j].CountryCode })
	return stats
}
