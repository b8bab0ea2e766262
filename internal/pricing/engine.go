package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ecovarrubiasl/strongpack.2/internal/catalog"
)

// Money represents a monetary value in whole currency units.
type Money = int64

// Quantity bounds. The request validator mirrors MaxQuantity with lte=999.
const (
	MinQuantity = 1
	MaxQuantity = 999
)

var (
	// ErrInvalidCoupon is returned when a non-empty code matches no coupon.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrInvalidQuantity reports a quantity outside [MinQuantity, MaxQuantity] that was clamped.
	ErrInvalidQuantity = errors.New("quantity out of range")
)

// CouponTable resolves coupon codes.
type CouponTable interface {
	Coupon(code string) (catalog.Coupon, bool)
}

// AffiliateTable resolves referral codes.
type AffiliateTable interface {
	Affiliate(code string) (catalog.Affiliate, bool)
}

// CouponResult is the outcome of applying a coupon to a subtotal.
// Code is empty when no coupon was applied.
type CouponResult struct {
	Code     string
	Kind     catalog.CouponKind
	Value    int64
	Note     string
	Discount Money
}

// Applied reports whether a coupon matched.
func (r CouponResult) Applied() bool { return r.Code != "" }

// ResolveUnitPrice picks the subscription or one-time price.
func ResolveUnitPrice(p catalog.Product, subscribe bool) Money {
	if subscribe {
		return p.PriceSubMonthly
	}
	return p.PriceOneTime
}

// ClampQuantity pulls q into [MinQuantity, MaxQuantity], returning
// ErrInvalidQuantity when it had to.
func ClampQuantity(q int) (int, error) {
	switch {
	case q < MinQuantity:
		return MinQuantity, fmt.Errorf("%w: got %d", ErrInvalidQuantity, q)
	case q > MaxQuantity:
		return MaxQuantity, fmt.Errorf("%w: got %d", ErrInvalidQuantity, q)
	}
	return q, nil
}

// ComputeSubtotal multiplies the unit price by the clamped quantity. The
// product saturates at math.MaxInt64 instead of wrapping.
func ComputeSubtotal(unitPrice Money, quantity int) Money {
	qty, _ := ClampQuantity(quantity)
	if unitPrice <= 0 {
		return 0
	}
	if unitPrice > math.MaxInt64/Money(qty) {
		return math.MaxInt64
	}
	return unitPrice * Money(qty)
}

// NormalizeCode trims and uppercases a code before lookup.
func NormalizeCode(code string) string {
	return catalog.NormalizeCode(code)
}

// ApplyCoupon resolves code against coupons and computes its discount on subtotal.
// Blank codes mean no coupon. Unknown codes return a zero result with ErrInvalidCoupon.
func ApplyCoupon(code string, coupons CouponTable, subtotal Money) (CouponResult, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return CouponResult{}, nil
	}
	if coupons == nil {
		return CouponResult{}, fmt.Errorf("%w: %s", ErrInvalidCoupon, normalized)
	}
	c, ok := coupons.Coupon(normalized)
	if !ok {
		return CouponResult{}, fmt.Errorf("%w: %s", ErrInvalidCoupon, normalized)
	}
	return CouponResult{
		Code:     c.Code,
		Kind:     c.Kind,
		Value:    c.Value,
		Note:     c.Note,
		Discount: Discount(c, subtotal),
	}, nil
}

// Discount computes the discount a coupon grants on subtotal, never exceeding it.
func Discount(c catalog.Coupon, subtotal Money) Money {
	if subtotal <= 0 || c.Value <= 0 {
		return 0
	}
	var d Money
	switch c.Kind {
	case catalog.KindPercent:
		d = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(c.Value)).
			Shift(-2).
			Round(0).
			IntPart()
	case catalog.KindAmount:
		d = c.Value
	default:
		return 0
	}
	if d > subtotal {
		d = subtotal
	}
	return d
}

// ComputeTotal subtracts the discount, flooring at zero.
func ComputeTotal(subtotal, discount Money) Money {
	total := subtotal - discount
	if total < 0 {
		return 0
	}
	return total
}

// ComputeSavings is the per-unit difference to the compare-at price, floored at zero.
func ComputeSavings(compareAt, unitPrice Money) Money {
	if compareAt > unitPrice {
		return compareAt - unitPrice
	}
	return 0
}

// ResolveAffiliate looks up a referral code. A miss is an unattributed referral.
func ResolveAffiliate(code string, affiliates AffiliateTable) (catalog.Affiliate, bool) {
	normalized := NormalizeCode(code)
	if normalized == "" || affiliates == nil {
		return catalog.Affiliate{}, false
	}
	return affiliates.Affiliate(normalized)
}
