package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecovarrubiasl/strongpack.2/internal/checkout"
	"github.com/ecovarrubiasl/strongpack.2/internal/resilience"
)

type flakyGateway struct {
	failures int
	calls    int
}

func (f *flakyGateway) Submit(_ context.Context, p checkout.Payload) (checkout.Receipt, error) {
	f.calls++
	if f.calls <= f.failures {
		return checkout.Receipt{}, errors.New("temporary outage")
	}
	return checkout.Receipt{Reference: "ok", Total: p.Total}, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func validPayload() checkout.Payload {
	return checkout.Payload{ProductID: "pack-fitness-001", Qty: 1, Subtotal: 58990, Total: 58990}
}

func TestGuardedGatewayRetries(t *testing.T) {
	next := &flakyGateway{failures: 2}
	g := checkout.GuardedGateway{Next: next, MaxAttempts: 3, Sleep: noSleep}

	receipt, err := g.Submit(context.Background(), validPayload())
	require.NoError(t, err)
	require.Equal(t, "ok", receipt.Reference)
	require.Equal(t, 3, next.calls)
}

func TestGuardedGatewayGivesUp(t *testing.T) {
	next := &flakyGateway{failures: 5}
	g := checkout.GuardedGateway{Next: next, MaxAttempts: 2, Sleep: noSleep}

	_, err := g.Submit(context.Background(), validPayload())
	require.EqualError(t, err, "temporary outage")
	require.Equal(t, 2, next.calls)
}

func TestGuardedGatewayDoesNotRetryInvalidPayload(t *testing.T) {
	g := checkout.GuardedGateway{Next: checkout.SimulatedGateway{}, MaxAttempts: 3, Sleep: noSleep}
	_, err := g.Submit(context.Background(), checkout.Payload{Qty: 0})
	require.ErrorIs(t, err, checkout.ErrInvalidPayload)
}

func TestGuardedGatewayOpenBreaker(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Target: "gateway", MinRequests: 1, OpenFor: time.Hour})
	next := &flakyGateway{failures: 10}
	g := checkout.GuardedGateway{Next: next, Breaker: breaker, MaxAttempts: 3, Sleep: noSleep}

	_, err := g.Submit(context.Background(), validPayload())
	require.ErrorIs(t, err, checkout.ErrGatewayUnavailable)
	require.Equal(t, 1, next.calls)
	require.Equal(t, resilience.Open, breaker.State())
}

func TestGuardedGatewayInvalidPayloadKeepsBreakerClosed(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Target:      "gateway",
		MinRequests: 1,
		OpenFor:     time.Hour,
		IsFailure:   checkout.IsGatewayFailure,
	})
	g := checkout.GuardedGateway{Next: checkout.SimulatedGateway{}, Breaker: breaker, MaxAttempts: 3, Sleep: noSleep}

	for range 5 {
		_, err := g.Submit(context.Background(), checkout.Payload{Qty: 0})
		require.ErrorIs(t, err, checkout.ErrInvalidPayload)
	}
	require.Equal(t, resilience.Closed, breaker.State())

	receipt, err := g.Submit(context.Background(), validPayload())
	require.NoError(t, err)
	require.NotEmpty(t, receipt.Reference)
}

func TestIsGatewayFailure(t *testing.T) {
	require.False(t, checkout.IsGatewayFailure(nil))
	require.False(t, checkout.IsGatewayFailure(checkout.ErrInvalidPayload))
	require.False(t, checkout.IsGatewayFailure(context.DeadlineExceeded))
	require.True(t, checkout.IsGatewayFailure(errors.New("temporary outage")))
}
