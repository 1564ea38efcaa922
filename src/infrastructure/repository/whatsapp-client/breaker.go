package whatsapp_client

import (
	"context"
	"errors"
	"time"

	"go-campaign-dispatcher/src/domain/message"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// BreakerTransport stops calling the provider after a run of failures and fails fast
// with a TransportError until the breaker half-opens.
type BreakerTransport struct {
	next   message.Transport
	cb     *gobreaker.CircuitBreaker
	Logger *logger.Logger
}

func NewBreakerTransport(next message.Transport, config BreakerConfig, loggerInstance *logger.Logger) *BreakerTransport {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "whatsapp-api",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			loggerInstance.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &BreakerTransport{next: next, cb: cb, Logger: loggerInstance}
}

func (b *BreakerTransport) SendTemplate(ctx context.Context, msg message.OutboundMessage) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.SendTemplate(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &message.TransportError{Err: err}
	}
	if err != nil {
		return "", err
	}
	messageID, _ := result.(string)
	return messageID, nil
}

func (b *BreakerTransport) State() gobreaker.State {
	return b.cb.State()
}
