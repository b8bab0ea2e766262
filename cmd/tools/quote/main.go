package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ecovarrubiasl/strongpack.2/internal/catalog"
	"github.com/ecovarrubiasl/strongpack.2/internal/money"
	"github.com/ecovarrubiasl/strongpack.2/internal/pricing"
	"github.com/ecovarrubiasl/strongpack.2/internal/storefront"
)

type options struct {
	subscribe bool
	qty       int
	coupon    string
	ref       string
	catalog   string
	locale    string
	currency  string
}

func main() {
	_ = godotenv.Load()
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:           "quote",
		Short:         "Price a StrongPack selection from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.subscribe, "subscribe", true, "monthly subscription pricing")
	f.IntVar(&opts.qty, "qty", pricing.MinQuantity, "pack quantity (clamped to 1..999)")
	f.StringVar(&opts.coupon, "coupon", "", "coupon code")
	f.StringVar(&opts.ref, "ref", "", "referral code")
	f.StringVar(&opts.catalog, "catalog", os.Getenv("CATALOG_FILE"), "catalog JSON file; built-in tables when empty")
	f.StringVar(&opts.locale, "locale", envOr("CURRENCY_LOCALE", "es-CL"), "display locale")
	f.StringVar(&opts.currency, "currency", envOr("CURRENCY_CODE", "CLP"), "ISO 4217 currency code")
	return cmd
}

func run(out io.Writer, opts options) error {
	cat, err := catalog.Load(opts.catalog)
	if err != nil {
		return err
	}
	engine, err := pricing.NewEngine(cat)
	if err != nil {
		return err
	}
	formatter, err := money.NewFormatter(opts.locale, opts.currency)
	if err != nil {
		return err
	}

	qty, _ := pricing.ClampQuantity(opts.qty)
	summary, err := engine.Quote(pricing.Selection{
		Subscribe:    opts.subscribe,
		Quantity:     qty,
		CouponCode:   opts.coupon,
		ReferralCode: opts.ref,
	})
	if errors.Is(err, pricing.ErrInvalidCoupon) {
		fmt.Fprintf(out, "%s: %s\n\n", pricing.NormalizeCode(opts.coupon), storefront.InvalidCouponMessage)
	} else if err != nil {
		return err
	}

	d := formatter.Display(summary)
	mode := "Compra única"
	if summary.Subscribe {
		mode = "Suscripción mensual"
	}
	fmt.Fprintf(out, "%s\n", summary.ProductName)
	fmt.Fprintf(out, "Modalidad:  %s\n", mode)
	fmt.Fprintf(out, "Precio:     %s (antes %s, ahorras %s)\n", d.UnitPrice, d.CompareAt, d.Savings)
	fmt.Fprintf(out, "Cantidad:   %d\n", summary.Quantity)
	fmt.Fprintf(out, "Subtotal:   %s\n", d.Subtotal)
	if d.CouponLine != "" {
		fmt.Fprintf(out, "%s\n", d.CouponLine)
	}
	fmt.Fprintf(out, "Descuento:  -%s\n", d.Discount)
	fmt.Fprintf(out, "Total:      %s\n", d.Total)
	if d.Referral != "" {
		fmt.Fprintf(out, "Referido:   %s\n", d.Referral)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
