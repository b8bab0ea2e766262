package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/ecovarrubiasl/strongpack.2/internal/resilience"
)

// ErrGatewayUnavailable wraps submissions refused by an open breaker.
var ErrGatewayUnavailable = errors.New("checkout gateway unavailable")

// GuardedGateway retries transient gateway failures with backoff and stops
// calling a gateway that keeps failing.
type GuardedGateway struct {
	Next        Gateway
	Breaker     *resilience.Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Sleep       func(context.Context, time.Duration) error
}

// Submit implements Gateway.
func (g GuardedGateway) Submit(ctx context.Context, p Payload) (Receipt, error) {
	if g.Next == nil {
		return Receipt{}, errors.New("checkout gateway not configured")
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := g.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var (
		receipt Receipt
		lastErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		call := func(ctx context.Context) error {
			var err error
			receipt, err = g.Next.Submit(ctx, p)
			return err
		}
		if g.Breaker != nil {
			lastErr = g.Breaker.Do(ctx, call)
		} else {
			lastErr = call(ctx)
		}
		switch {
		case lastErr == nil:
			return receipt, nil
		case errors.Is(lastErr, resilience.ErrOpenCircuit):
			return Receipt{}, errors.Join(ErrGatewayUnavailable, lastErr)
		case !IsGatewayFailure(lastErr), ctx.Err() != nil:
			return Receipt{}, lastErr
		}
		if attempt < attempts {
			if err := sleep(ctx, resilience.Backoff(g.BaseBackoff, attempt, 0.2)); err != nil {
				return Receipt{}, err
			}
		}
	}
	return Receipt{}, lastErr
}

// IsGatewayFailure reports whether err reflects a gateway fault. Rejected
// payloads and caller cancellation are not held against the gateway.
func IsGatewayFailure(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInvalidPayload),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
