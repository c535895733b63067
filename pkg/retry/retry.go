package retry

import (
	"context"
	"time"
)

// Policy is a bounded retry schedule. Backoff doubles after every failed
// attempt up to MaxBackoff.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// Default is the schedule used for peer calls unless a call site
// overrides it.
var Default = Policy{
	MaxAttempts: 3,
	Backoff:     500 * time.Millisecond,
	MaxBackoff:  5 * time.Second,
}

// Do runs fn until it succeeds, the policy's attempts are exhausted, or
// ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.Backoff
	var err error
	for i := 0; i < attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
	return err
}
