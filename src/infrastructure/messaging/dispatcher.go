package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-campaign-dispatcher/src/domain/message"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/metrics"

	"go.uber.org/zap"
)

// DispatchFailure is returned once every attempt for a message has failed.
type DispatchFailure struct {
	Attempts int
	Err      error
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("send failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DispatchFailure) Unwrap() error {
	return e.Err
}

// MessageDispatcher sends one message, retrying as its policy allows.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, msg message.OutboundMessage) (messageID string, attempts int, err error)
}

type Dispatcher struct {
	transport message.Transport
	policy    RetryPolicy
	timeout   time.Duration
	Logger    *logger.Logger
	metrics   *metrics.Metrics
	sleep     func(ctx context.Context, d time.Duration) error
}

type DispatcherOption func(*Dispatcher)

// WithSleeper replaces the backoff wait.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) DispatcherOption {
	return func(d *Dispatcher) {
		d.sleep = sleep
	}
}

func NewDispatcher(
	transport message.Transport,
	policy RetryPolicy,
	timeout time.Duration,
	loggerInstance *logger.Logger,
	m *metrics.Metrics,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		policy:    policy,
		timeout:   timeout,
		Logger:    loggerInstance,
		metrics:   m,
		sleep:     sleepWithContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch makes up to MaxAttempts transport calls. Every failure, a call timeout
// included, is retried until the attempts run out.
func (d *Dispatcher) Dispatch(ctx context.Context, msg message.OutboundMessage) (string, int, error) {
	maxAttempts := d.policy.attempts()
	var lastErr error
	attempt := 1
	for ; attempt <= maxAttempts; attempt++ {
		messageID, err := d.attempt(ctx, msg)
		if err == nil {
			d.metrics.ObserveAttempt("success")
			return messageID, attempt, nil
		}
		lastErr = err
		d.metrics.ObserveAttempt(outcomeOf(err))

		if attempt == maxAttempts {
			break
		}
		delay := d.policy.Delay(attempt)
		d.Logger.Warn("Send attempt failed, retrying",
			zap.String("phone", msg.Phone),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if err := d.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	d.Logger.Error("Send failed, giving up",
		zap.String("phone", msg.Phone),
		zap.Int("attempts", attempt),
		zap.Error(lastErr))
	return "", attempt, &DispatchFailure{Attempts: attempt, Err: lastErr}
}

func (d *Dispatcher) attempt(ctx context.Context, msg message.OutboundMessage) (string, error) {
	if d.timeout <= 0 {
		return d.transport.SendTemplate(ctx, msg)
	}
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	messageID, err := d.transport.SendTemplate(callCtx, msg)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		var transportErr *message.TransportError
		if !errors.As(err, &transportErr) {
			err = &message.TransportError{Err: err}
		}
	}
	return messageID, err
}

func outcomeOf(err error) string {
	var rejection *message.ProviderRejection
	if errors.As(err, &rejection) {
		return "rejected"
	}
	var transportErr *message.TransportError
	if errors.As(err, &transportErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return "timeout"
		}
		return "transport_error"
	}
	return "error"
}
