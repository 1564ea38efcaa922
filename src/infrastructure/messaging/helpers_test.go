package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go-campaign-dispatcher/src/domain/delivery"
	domainErrors "go-campaign-dispatcher/src/domain/errors"
	"go-campaign-dispatcher/src/domain/message"
	"go-campaign-dispatcher/src/domain/ratelimit"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
)

func setupLogger(t *testing.T) *logger.Logger {
	loggerInstance, err := logger.NewLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return loggerInstance
}

type fakeResolver struct {
	mu       sync.Mutex
	limits   map[string]ratelimit.Limits
	fallback ratelimit.Limits
	calls    atomic.Int32
}

func newFakeResolver(fallback ratelimit.Limits) *fakeResolver {
	return &fakeResolver{limits: map[string]ratelimit.Limits{}, fallback: fallback}
}

func (f *fakeResolver) set(code string, limits ratelimit.Limits) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits[code] = limits
}

func (f *fakeResolver) Resolve(_ context.Context, code string) ratelimit.Limits {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limits[code]; ok {
		return l
	}
	return f.fallback
}

type fakePolicyReader struct {
	policies map[string]*ratelimit.Policy
	err      error
}

func (f *fakePolicyReader) GetByCountryCode(_ context.Context, code string) (*ratelimit.Policy, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.policies[code]; ok {
		return p, nil
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

// scriptedTransport answers calls in order from results; the last entry repeats.
type scriptedTransport struct {
	mu      sync.Mutex
	results []func(ctx context.Context) (string, error)
	sent    []message.OutboundMessage
}

func (s *scriptedTransport) SendTemplate(ctx context.Context, msg message.OutboundMessage) (string, error) {
	s.mu.Lock()
	idx := len(s.sent)
	s.sent = append(s.sent, msg)
	var fn func(ctx context.Context) (string, error)
	if idx < len(s.results) {
		fn = s.results[idx]
	} else if len(s.results) > 0 {
		fn = s.results[len(s.results)-1]
	}
	s.mu.Unlock()
	if fn == nil {
		return "", errors.New("no scripted result")
	}
	return fn(ctx)
}

func (s *scriptedTransport) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func succeed(id string) func(ctx context.Context) (string, error) {
	return func(context.Context) (string, error) { return id, nil }
}

func fail(err error) func(ctx context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

type fakeDispatcher struct {
	mu       sync.Mutex
	calls    []message.OutboundMessage
	failures map[string]error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, msg message.OutboundMessage) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	if err, ok := f.failures[msg.Phone]; ok {
		return "", 3, &DispatchFailure{Attempts: 3, Err: err}
	}
	return "wamid." + msg.Phone, 1, nil
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeEventWriter struct {
	mu     sync.Mutex
	events []delivery.Event
	err    error
}

func (f *fakeEventWriter) Create(_ context.Context, event *delivery.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventWriter) byPhone() map[string]delivery.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]delivery.Event, len(f.events))
	for _, e := range f.events {
		out[e.Phone] = e
	}
	return out
}
