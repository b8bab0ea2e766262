package storefront

import (
	"context"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ecovarrubiasl/strongpack.2/internal/catalog"
	"github.com/ecovarrubiasl/strongpack.2/internal/common"
	"github.com/ecovarrubiasl/strongpack.2/internal/events"
	"github.com/ecovarrubiasl/strongpack.2/internal/money"
	"github.com/ecovarrubiasl/strongpack.2/internal/obs"
	"github.com/ecovarrubiasl/strongpack.2/internal/pricing"
)

// Handler exposes the storefront pricing endpoints.
type Handler struct {
	Engine    *pricing.Engine
	Formatter *money.Formatter
	Events    *events.Bus
	Validate  *validator.Validate
	Logger    zerolog.Logger
}

// View is the priced state returned to the storefront shell.
type View struct {
	Product       *catalog.Product `json:"product,omitempty"`
	Summary       pricing.Summary  `json:"summary"`
	Display       *money.Display   `json:"display,omitempty"`
	CouponInput   string           `json:"couponInput"`
	AppliedCoupon string           `json:"appliedCoupon,omitempty"`
}

// Storefront handles GET /api/v1/storefront?ref=&coupon=.
func (h *Handler) Storefront(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing engine not configured", nil)
		return
	}
	session := NewSession(h.Engine)
	session.SeedFromQuery(r.URL.Query())

	if ref := session.Referral(); ref != "" {
		h.emit(r.Context(), events.TopicReferralDetected, map[string]any{"ref": ref, "source": "storefront"})
	}
	view := h.view(session)
	product := h.Engine.Tables.Product()
	view.Product = &product
	obs.ObserveQuote(session.Subscribe(), "ok")
	common.Data(w, http.StatusOK, view)
}

// Quote handles POST /api/v1/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing engine not configured", nil)
		return
	}
	var req pricing.SelectionRequest
	if appErr := common.DecodeJSON(r, &req, h.Validate); appErr != nil {
		common.WriteError(w, appErr)
		return
	}
	sel := req.Selection()
	summary, err := h.Engine.Quote(sel)
	switch {
	case errors.Is(err, pricing.ErrInvalidCoupon):
		obs.ObserveQuote(sel.Subscribe, "invalid_coupon")
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_COUPON", InvalidCouponMessage, map[string]any{
			"coupon":  sel.CouponCode,
			"summary": summary,
			"display": h.display(summary),
		})
		return
	case err != nil:
		obs.ObserveQuote(sel.Subscribe, "error")
		logger := obs.LoggerFrom(r.Context(), h.Logger)
		logger.Error().Err(err).Msg("quote failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote failed", nil)
		return
	}
	obs.ObserveQuote(sel.Subscribe, "ok")
	common.Data(w, http.StatusOK, map[string]any{
		"summary": summary,
		"display": h.display(summary),
	})
}

// ApplyCoupon handles POST /api/v1/coupons/apply, the manual coupon action.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing engine not configured", nil)
		return
	}
	var req pricing.SelectionRequest
	if appErr := common.DecodeJSON(r, &req, h.Validate); appErr != nil {
		common.WriteError(w, appErr)
		return
	}
	sel := req.Selection()
	session := NewSession(h.Engine)
	session.SetSubscribe(sel.Subscribe)
	session.SetQuantity(sel.Quantity)
	session.referral = sel.ReferralCode
	session.SetCouponInput(req.Coupon)

	if err := session.ApplyCoupon(); err != nil {
		obs.ObserveCoupon(session.CouponInput(), "rejected")
		h.emit(r.Context(), events.TopicCouponRejected, map[string]any{"code": pricing.NormalizeCode(req.Coupon)})
		view := h.view(session)
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_COUPON", InvalidCouponMessage, map[string]any{
			"coupon":  pricing.NormalizeCode(req.Coupon),
			"summary": view.Summary,
			"display": view.Display,
		})
		return
	}
	if code := session.AppliedCoupon(); code != "" {
		obs.ObserveCoupon(code, "applied")
		h.emit(r.Context(), events.TopicCouponApplied, map[string]any{"code": code, "ref": session.Referral()})
	}
	common.Data(w, http.StatusOK, h.view(session))
}

func (h *Handler) view(s *Session) View {
	summary := s.Summary()
	return View{
		Summary:       summary,
		Display:       h.display(summary),
		CouponInput:   s.CouponInput(),
		AppliedCoupon: s.AppliedCoupon(),
	}
}

func (h *Handler) display(s pricing.Summary) *money.Display {
	if h.Formatter == nil {
		return nil
	}
	d := h.Formatter.Display(s)
	return &d
}

func (h *Handler) emit(ctx context.Context, topic string, payload any) {
	if h.Events == nil {
		return
	}
	if _, err := h.Events.Emit(ctx, topic, "", payload); err != nil {
		logger := obs.LoggerFrom(ctx, h.Logger)
		logger.Warn().Err(err).Str("topic", topic).Msg("emit storefront event")
	}
}
