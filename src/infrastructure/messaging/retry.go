package messaging

import (
	"context"
	"math/rand/v2"
	"time"
)

const maxBackoffShift = 62

// RetryPolicy bounds the number of send attempts and spaces them exponentially.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
}

// Delay is the wait after failed attempt n (1-based): BaseDelay * 2^(n-1).
// With Jitter it is drawn uniformly from [0, that value).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	delay := p.BaseDelay << uint(shift)
	if delay <= 0 || delay>>uint(shift) != p.BaseDelay {
		delay = time.Duration(1<<63 - 1)
	}
	if p.Jitter {
		return time.Duration(rand.Int64N(int64(delay)))
	}
	return delay
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
