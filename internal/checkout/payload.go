package checkout

import "github.com/ecovarrubiasl/strongpack.2/internal/pricing"

// Payload is the order handed to the payment gateway.
type Payload struct {
	ProductID string        `json:"product_id"`
	Name      string        `json:"name"`
	Subscribe bool          `json:"subscribe"`
	Qty       int           `json:"qty"`
	UnitPrice pricing.Money `json:"unit_price"`
	Subtotal  pricing.Money `json:"subtotal"`
	Coupon    *string       `json:"coupon"`
	Discount  pricing.Money `json:"discount"`
	Total     pricing.Money `json:"total"`
	Ref       *string       `json:"ref"`
}

// PayloadFromSummary copies a priced summary into a gateway payload.
func PayloadFromSummary(s pricing.Summary) Payload {
	p := Payload{
		ProductID: s.ProductID,
		Name:      s.ProductName,
		Subscribe: s.Subscribe,
		Qty:       s.Quantity,
		UnitPrice: s.UnitPrice,
		Subtotal:  s.Subtotal,
		Discount:  s.Discount,
		Total:     s.Total,
	}
	if s.Coupon != nil {
		code := s.Coupon.Code
		p.Coupon = &code
	}
	if s.ReferralCode != "" {
		ref := s.ReferralCode
		p.Ref = &ref
	}
	return p
}
