package money

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ecovarrubiasl/strongpack.2/internal/catalog"
	"github.com/ecovarrubiasl/strongpack.2/internal/pricing"
)

// narrowSymbols holds the prefixes shown next to amounts. Codes missing here
// are rendered with their ISO code.
var narrowSymbols = map[string]string{
	"CLP": "$",
	"ARS": "$",
	"COP": "$",
	"MXN": "$",
	"USD": "US$",
	"EUR": "€",
	"PEN": "S/",
}

// Formatter renders whole-unit amounts for a locale and currency.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	symbol  string
	printer *message.Printer
}

// NewFormatter builds a formatter for a BCP 47 locale and an ISO 4217 code.
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	symbol, ok := narrowSymbols[unit.String()]
	if !ok {
		symbol = unit.String() + " "
	}
	return &Formatter{
		tag:     tag,
		unit:    unit,
		symbol:  symbol,
		printer: message.NewPrinter(tag),
	}, nil
}

// MustFormatter is NewFormatter for static arguments.
func MustFormatter(locale, code string) *Formatter {
	f, err := NewFormatter(locale, code)
	if err != nil {
		panic(err)
	}
	return f
}

// Currency returns the ISO code the formatter renders.
func (f *Formatter) Currency() string { return f.unit.String() }

// Locale returns the locale tag.
func (f *Formatter) Locale() string { return f.tag.String() }

// Format renders v with the currency symbol, locale grouping and no fraction digits.
func (f *Formatter) Format(v pricing.Money) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
	return sign + f.symbol + digits
}

// Display holds the formatted strings of a summary.
type Display struct {
	UnitPrice   string `json:"unitPrice"`
	CompareAt   string `json:"compareAt"`
	Savings     string `json:"savings"`
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`
	CouponBadge string `json:"couponBadge,omitempty"`
	CouponLine  string `json:"couponLine,omitempty"`
	Referral    string `json:"referral,omitempty"`
}

// Display formats every amount of s along with the coupon and referral lines.
func (f *Formatter) Display(s pricing.Summary) Display {
	d := Display{
		UnitPrice: f.Format(s.UnitPrice),
		CompareAt: f.Format(s.CompareAt),
		Savings:   f.Format(s.Savings),
		Subtotal:  f.Format(s.Subtotal),
		Discount:  f.Format(s.Discount),
		Total:     f.Format(s.Total),
	}
	if s.Coupon != nil {
		d.CouponBadge = f.CouponBadge(s.Coupon.Kind, s.Coupon.Value)
		d.CouponLine = fmt.Sprintf("Cupón %s aplicado. Descuento: %s", s.Coupon.Code, d.CouponBadge)
	}
	if s.ReferralCode != "" {
		d.Referral = ReferralLine(s.ReferralCode, s.Affiliate)
	}
	return d
}

// CouponBadge renders a coupon value: "10%" for percentages, a formatted amount otherwise.
func (f *Formatter) CouponBadge(kind catalog.CouponKind, value int64) string {
	if kind == catalog.KindPercent {
		return fmt.Sprintf("%d%%", value)
	}
	return f.Format(value)
}

// ReferralLine renders "CODE · Owner (N% comisión)", or just the code when unattributed.
func ReferralLine(code string, af *catalog.Affiliate) string {
	if af == nil {
		return code
	}
	return fmt.Sprintf("%s · %s (%d%% comisión)", code, af.Owner, af.CommissionPct)
}
