package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// ErrInvalidCatalog wraps every failure raised while building a catalog.
var ErrInvalidCatalog = errors.New("invalid catalog")

// CouponKind identifies how a coupon value is interpreted.
type CouponKind string

const (
	// KindPercent discounts a percentage (0-100) of the subtotal.
	KindPercent CouponKind = "percent"
	// KindAmount discounts a fixed amount capped at the subtotal.
	KindAmount CouponKind = "amount"
)

// Product is the single bundle sold by the storefront. Prices are whole currency units.
type Product struct {
	ID              string   `json:"id" validate:"required,max=64"`
	Name            string   `json:"name" validate:"required"`
	Bullets         []string `json:"bullets,omitempty"`
	PriceOneTime    int64    `json:"priceOneTime" validate:"gte=0"`
	PriceSubMonthly int64    `json:"priceSubMonthly" validate:"gte=0"`
	CompareAt       int64    `json:"compareAt" validate:"gte=0"`
}

// Coupon describes a discount code.
type Coupon struct {
	Code  string     `json:"code" validate:"required,max=64"`
	Kind  CouponKind `json:"kind" validate:"oneof=percent amount"`
	Value int64      `json:"value" validate:"gte=0"`
	Note  string     `json:"note,omitempty"`
}

// Affiliate attributes a sale to a promoter. It never changes the price.
type Affiliate struct {
	Code          string `json:"code" validate:"required,max=64"`
	Owner         string `json:"owner" validate:"required"`
	CommissionPct int    `json:"commissionPct" validate:"gte=0,lte=100"`
}

// Catalog holds the immutable product, coupon and affiliate tables.
type Catalog struct {
	product    Product
	coupons    map[string]Coupon
	affiliates map[string]Affiliate
}

// NormalizeCode trims and uppercases a coupon or referral code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// New validates the tables and returns a catalog keyed by normalized code.
func New(product Product, coupons []Coupon, affiliates []Affiliate) (*Catalog, error) {
	v := validator.New()
	if err := v.Struct(product); err != nil {
		return nil, fmt.Errorf("%w: product: %v", ErrInvalidCatalog, err)
	}
	c := &Catalog{
		product:    cloneProduct(product),
		coupons:    make(map[string]Coupon, len(coupons)),
		affiliates: make(map[string]Affiliate, len(affiliates)),
	}
	for _, cp := range coupons {
		cp.Code = NormalizeCode(cp.Code)
		if err := v.Struct(cp); err != nil {
			return nil, fmt.Errorf("%w: coupon %q: %v", ErrInvalidCatalog, cp.Code, err)
		}
		if cp.Kind == KindPercent && cp.Value > 100 {
			return nil, fmt.Errorf("%w: coupon %q: percentage %d exceeds 100", ErrInvalidCatalog, cp.Code, cp.Value)
		}
		if _, dup := c.coupons[cp.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate coupon %q", ErrInvalidCatalog, cp.Code)
		}
		c.coupons[cp.Code] = cp
	}
	for _, af := range affiliates {
		af.Code = NormalizeCode(af.Code)
		if err := v.Struct(af); err != nil {
			return nil, fmt.Errorf("%w: affiliate %q: %v", ErrInvalidCatalog, af.Code, err)
		}
		if _, dup := c.affiliates[af.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate affiliate %q", ErrInvalidCatalog, af.Code)
		}
		c.affiliates[af.Code] = af
	}
	return c, nil
}

// Product returns a copy of the catalog product.
func (c *Catalog) Product() Product {
	if c == nil {
		return Product{}
	}
	return cloneProduct(c.product)
}

// Coupon looks up a coupon by code, ignoring case and surrounding whitespace.
func (c *Catalog) Coupon(code string) (Coupon, bool) {
	if c == nil {
		return Coupon{}, false
	}
	cp, ok := c.coupons[NormalizeCode(code)]
	return cp, ok
}

// Affiliate looks up an affiliate by referral code, ignoring case.
func (c *Catalog) Affiliate(code string) (Affiliate, bool) {
	if c == nil {
		return Affiliate{}, false
	}
	af, ok := c.affiliates[NormalizeCode(code)]
	return af, ok
}

// Coupons lists every coupon ordered by code.
func (c *Catalog) Coupons() []Coupon {
	if c == nil {
		return nil
	}
	out := make([]Coupon, 0, len(c.coupons))
	for _, cp := range c.coupons {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Affiliates lists every affiliate ordered by code.
func (c *Catalog) Affiliates() []Affiliate {
	if c == nil {
		return nil
	}
	out := make([]Affiliate, 0, len(c.affiliates))
	for _, af := range c.affiliates {
		out = append(out, af)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func cloneProduct(p Product) Product {
	if p.Bullets != nil {
		p.Bullets = append([]string(nil), p.Bullets...)
	}
	return p
}
