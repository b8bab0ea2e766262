package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecovarrubiasl/strongpack.2/internal/events"
	"github.com/ecovarrubiasl/strongpack.2/internal/obs"
	"github.com/ecovarrubiasl/strongpack.2/internal/pricing"
)

// Result bundles the gateway receipt and the payload that produced it.
type Result struct {
	Receipt Receipt `json:"receipt"`
	Payload Payload `json:"payload"`
}

// Service re-prices selections server side and submits them to the gateway.
type Service struct {
	Engine   *pricing.Engine
	Gateway  Gateway
	Receipts ReceiptStore
	Events   *events.Bus
	Logger   zerolog.Logger
}

// Submit prices sel, submits the payload and records the receipt. An unknown
// coupon is dropped rather than failing the order.
func (s *Service) Submit(ctx context.Context, sel pricing.Selection) (Result, error) {
	if s == nil || s.Engine == nil || s.Gateway == nil {
		return Result{}, errors.New("checkout service not configured")
	}
	logger := obs.LoggerFrom(ctx, s.Logger)
	summary, err := s.Engine.Quote(sel)
	if err != nil && !errors.Is(err, pricing.ErrInvalidCoupon) {
		return Result{}, fmt.Errorf("price selection: %w", err)
	}
	if err != nil {
		logger.Warn().Str("coupon", sel.CouponCode).Msg("checkout dropped invalid coupon")
	}
	payload := PayloadFromSummary(summary)

	receipt, err := s.Gateway.Submit(ctx, payload)
	if err != nil {
		obs.ObserveCheckout("error", payload.Total)
		return Result{}, fmt.Errorf("submit checkout: %w", err)
	}
	obs.ObserveCheckout("ok", payload.Total)

	if s.Receipts != nil {
		if err := s.Receipts.Save(ctx, receipt); err != nil {
			logger.Error().Err(err).Str("reference", receipt.Reference).Msg("store receipt")
		}
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicCheckoutSubmitted, receipt.Reference, payload); err != nil {
			logger.Error().Err(err).Str("reference", receipt.Reference).Msg("emit checkout event")
		}
	}
	return Result{Receipt: receipt, Payload: payload}, nil
}

// Receipt looks up a stored receipt by reference.
func (s *Service) Receipt(ctx context.Context, reference string) (Receipt, error) {
	if s == nil || s.Receipts == nil {
		return Receipt{}, errors.New("checkout receipts not configured")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Receipt{}, ErrReceiptNotFound
	}
	return s.Receipts.Get(ctx, reference)
}
