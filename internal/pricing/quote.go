package pricing

import (
	"errors"

	"github.com/ecovarrubiasl/strongpack.2/internal/catalog"
)

// Tables is the static data the engine prices against.
type Tables interface {
	CouponTable
	AffiliateTable
	Product() catalog.Product
}

// Selection is the purchase configuration chosen by the buyer.
type Selection struct {
	Subscribe    bool   `json:"subscribe"`
	Quantity     int    `json:"quantity"`
	CouponCode   string `json:"coupon,omitempty"`
	ReferralCode string `json:"ref,omitempty"`
}

// DefaultSelection is the state a new storefront visit starts in.
func DefaultSelection() Selection {
	return Selection{Subscribe: true, Quantity: MinQuantity}
}

// AppliedCoupon describes the coupon reflected in a summary.
type AppliedCoupon struct {
	Code  string             `json:"code"`
	Kind  catalog.CouponKind `json:"kind"`
	Value int64              `json:"value"`
	Note  string             `json:"note,omitempty"`
}

// Summary aggregates computed pricing components.
type Summary struct {
	ProductID    string             `json:"productId"`
	ProductName  string             `json:"productName"`
	Subscribe    bool               `json:"subscribe"`
	Quantity     int                `json:"quantity"`
	UnitPrice    Money              `json:"unitPrice"`
	CompareAt    Money              `json:"compareAt"`
	Savings      Money              `json:"savings"`
	Subtotal     Money              `json:"subtotal"`
	Discount     Money              `json:"discount"`
	Total        Money              `json:"total"`
	Coupon       *AppliedCoupon     `json:"coupon"`
	ReferralCode string             `json:"ref,omitempty"`
	Affiliate    *catalog.Affiliate `json:"affiliate"`
}

// Engine prices selections against injected tables. It holds no mutable state.
type Engine struct {
	Tables Tables
}

// NewEngine returns an engine bound to tables.
func NewEngine(tables Tables) (*Engine, error) {
	if tables == nil {
		return nil, errors.New("pricing: tables are required")
	}
	return &Engine{Tables: tables}, nil
}

// Quote prices sel. An unknown coupon still yields a complete summary without
// a discount, alongside ErrInvalidCoupon for the caller to surface or ignore.
func (e *Engine) Quote(sel Selection) (Summary, error) {
	if e == nil || e.Tables == nil {
		return Summary{}, errors.New("pricing engine not configured")
	}
	product := e.Tables.Product()
	qty, _ := ClampQuantity(sel.Quantity)
	unit := ResolveUnitPrice(product, sel.Subscribe)
	subtotal := ComputeSubtotal(unit, qty)

	coupon, couponErr := ApplyCoupon(sel.CouponCode, e.Tables, subtotal)

	summary := Summary{
		ProductID:   product.ID,
		ProductName: product.Name,
		Subscribe:   sel.Subscribe,
		Quantity:    qty,
		UnitPrice:   unit,
		CompareAt:   product.CompareAt,
		Savings:     ComputeSavings(product.CompareAt, unit),
		Subtotal:    subtotal,
		Discount:    coupon.Discount,
		Total:       ComputeTotal(subtotal, coupon.Discount),
	}
	if coupon.Applied() {
		summary.Coupon = &AppliedCoupon{Code: coupon.Code, Kind: coupon.Kind, Value: coupon.Value, Note: coupon.Note}
	}
	if ref := NormalizeCode(sel.ReferralCode); ref != "" {
		summary.ReferralCode = ref
		if af, ok := ResolveAffiliate(ref, e.Tables); ok {
			summary.Affiliate = &af
		}
	}
	return summary, couponErr
}
