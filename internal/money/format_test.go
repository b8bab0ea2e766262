package money_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecovarrubiasl/strongpack.2/internal/catalog"
	"github.com/ecovarrubiasl/strongpack.2/internal/money"
	"github.com/ecovarrubiasl/strongpack.2/internal/pricing"
)

func TestFormatChileanPesos(t *testing.T) {
	f, err := money.NewFormatter("es-CL", "CLP")
	require.NoError(t, err)
	require.Equal(t, "CLP", f.Currency())

	out := f.Format(58990)
	require.Contains(t, out, "58.990")
	require.Contains(t, out, "$")
	require.NotContains(t, out, ",")

	require.Contains(t, f.Format(124980), "124.980")
	require.Contains(t, f.Format(0), "0")
	require.Contains(t, f.Format(-11000), "-")
}

func TestNewFormatterRejectsBadInput(t *testing.T) {
	_, err := money.NewFormatter("es-CL", "NOPE")
	require.Error(t, err)
	_, err = money.NewFormatter("%%", "CLP")
	require.Error(t, err)
}

func TestDisplay(t *testing.T) {
	f := money.MustFormatter("es-CL", "CLP")
	engine, err := pricing.NewEngine(catalog.Default())
	require.NoError(t, err)

	sum, err := engine.Quote(pricing.Selection{Subscribe: true, Quantity: 1, CouponCode: "FIT10", ReferralCode: "FITJUAN10"})
	require.NoError(t, err)

	d := f.Display(sum)
	require.Contains(t, d.Total, "53.091")
	require.Contains(t, d.Savings, "11.000")
	require.Contains(t, d.CompareAt, "69.990")
	require.Equal(t, "10%", d.CouponBadge)
	require.Equal(t, "Cupón FIT10 aplicado. Descuento: 10%", d.CouponLine)
	require.Equal(t, "FITJUAN10 · Juan Pérez (10% comisión)", d.Referral)

	sum, err = engine.Quote(pricing.Selection{Quantity: 2, CouponCode: "START5000", ReferralCode: "STRANGER"})
	require.NoError(t, err)
	d = f.Display(sum)
	require.Equal(t, f.Format(5000), d.CouponBadge)
	require.Equal(t, "STRANGER", d.Referral)

	sum, err = engine.Quote(pricing.DefaultSelection())
	require.NoError(t, err)
	d = f.Display(sum)
	require.Empty(t, d.CouponBadge)
	require.Empty(t, d.Referral)
}
