package storefront

import (
	"net/url"

	"github.com/ecovarrubiasl/strongpack.2/internal/checkout"
	"github.com/ecovarrubiasl/strongpack.2/internal/pricing"
)

// InvalidCouponMessage is shown when a manually entered code matches nothing.
const InvalidCouponMessage = "Código inválido o expirado"

// Session is one buyer's storefront state. It is not safe for concurrent use;
// each request or page view owns its own Session.
type Session struct {
	engine        *pricing.Engine
	subscribe     bool
	quantity      int
	couponInput   string
	appliedCoupon string
	referral      string
}

// NewSession starts a session with a monthly subscription for one unit.
func NewSession(engine *pricing.Engine) *Session {
	def := pricing.DefaultSelection()
	return &Session{engine: engine, subscribe: def.Subscribe, quantity: def.Quantity}
}

// SeedFromQuery reads the startup parameters of a page view. "ref" is recorded
// as given; "coupon" is copied into the input and applied only when it exists.
// An unknown startup coupon is ignored without surfacing an error.
func (s *Session) SeedFromQuery(q url.Values) {
	if ref := pricing.NormalizeCode(q.Get("ref")); ref != "" {
		s.referral = ref
	}
	if code := pricing.NormalizeCode(q.Get("coupon")); code != "" {
		s.couponInput = code
		if s.validCoupon(code) {
			s.appliedCoupon = code
		}
	}
}

// SetSubscribe selects subscription (true) or one-time (false) pricing.
func (s *Session) SetSubscribe(v bool) { s.subscribe = v }

// ToggleSubscribe flips the purchase mode.
func (s *Session) ToggleSubscribe() { s.subscribe = !s.subscribe }

// Subscribe reports the purchase mode.
func (s *Session) Subscribe() bool { return s.subscribe }

// Increment adds one unit.
func (s *Session) Increment() { s.SetQuantity(s.quantity + 1) }

// Decrement removes one unit, never going below the minimum.
func (s *Session) Decrement() { s.SetQuantity(s.quantity - 1) }

// SetQuantity sets the quantity, clamping it into the purchasable range.
func (s *Session) SetQuantity(n int) { s.quantity, _ = pricing.ClampQuantity(n) }

// Quantity returns the current quantity.
func (s *Session) Quantity() int { return s.quantity }

// SetCouponInput stores the raw code typed by the buyer.
func (s *Session) SetCouponInput(code string) { s.couponInput = code }

// CouponInput returns the raw coupon input.
func (s *Session) CouponInput() string { return s.couponInput }

// ApplyCoupon applies the coupon input. Blank input is a no-op. An unknown
// code clears any applied coupon and returns pricing.ErrInvalidCoupon.
func (s *Session) ApplyCoupon() error {
	code := pricing.NormalizeCode(s.couponInput)
	if code == "" {
		return nil
	}
	var tables pricing.CouponTable
	if s.engine != nil {
		tables = s.engine.Tables
	}
	if _, err := pricing.ApplyCoupon(code, tables, 0); err != nil {
		s.appliedCoupon = ""
		return err
	}
	s.appliedCoupon = code
	return nil
}

// ClearCoupon removes the applied coupon and empties the input.
func (s *Session) ClearCoupon() {
	s.appliedCoupon = ""
	s.couponInput = ""
}

// AppliedCoupon returns the applied code, or "" when none.
func (s *Session) AppliedCoupon() string { return s.appliedCoupon }

// Referral returns the referral code captured at startup.
func (s *Session) Referral() string { return s.referral }

// Selection returns the priced configuration.
func (s *Session) Selection() pricing.Selection {
	return pricing.Selection{
		Subscribe:    s.subscribe,
		Quantity:     s.quantity,
		CouponCode:   s.appliedCoupon,
		ReferralCode: s.referral,
	}
}

// Summary prices the current selection.
func (s *Session) Summary() pricing.Summary {
	if s.engine == nil {
		return pricing.Summary{}
	}
	summary, _ := s.engine.Quote(s.Selection())
	return summary
}

// CheckoutPayload builds the payload the checkout action submits.
func (s *Session) CheckoutPayload() checkout.Payload {
	return checkout.PayloadFromSummary(s.Summary())
}

func (s *Session) validCoupon(code string) bool {
	if s.engine == nil || s.engine.Tables == nil {
		return false
	}
	_, ok := s.engine.Tables.Coupon(code)
	return ok
}
