package pricing

// SelectionRequest is the wire form of a Selection. Missing fields take the
// storefront defaults; quantities below the minimum are clamped, not rejected.
type SelectionRequest struct {
	Subscribe *bool  `json:"subscribe"`
	Quantity  *int   `json:"quantity" validate:"omitempty,lte=999"`
	Coupon    string `json:"coupon" validate:"max=64"`
	Ref       string `json:"ref" validate:"max=64"`
}

// Selection converts the request into a Selection.
func (r SelectionRequest) Selection() Selection {
	sel := DefaultSelection()
	if r.Subscribe != nil {
		sel.Subscribe = *r.Subscribe
	}
	if r.Quantity != nil {
		sel.Quantity, _ = ClampQuantity(*r.Quantity)
	}
	sel.CouponCode = NormalizeCode(r.Coupon)
	sel.ReferralCode = NormalizeCode(r.Ref)
	return sel
}
