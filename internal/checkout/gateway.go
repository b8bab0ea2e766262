package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SimulatedMessage is shown to buyers until a real gateway is connected.
const SimulatedMessage = "Simulación de checkout. Luego conectaremos Webpay."

// ErrInvalidPayload reports a payload no gateway would accept.
var ErrInvalidPayload = errors.New("checkout: malformed payload")

// Receipt acknowledges a submitted checkout.
type Receipt struct {
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

// Gateway submits payloads to a payment provider.
type Gateway interface {
	Submit(ctx context.Context, p Payload) (Receipt, error)
}

// SimulatedGateway logs the payload and acknowledges it without charging.
type SimulatedGateway struct {
	Logger zerolog.Logger
	Now    func() time.Time
}

// Submit implements Gateway.
func (g SimulatedGateway) Submit(ctx context.Context, p Payload) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if p.Qty < 1 || p.Total < 0 {
		return Receipt{}, ErrInvalidPayload
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	receipt := Receipt{
		Reference: uuid.NewString(),
		Status:    "simulated",
		Message:   SimulatedMessage,
		Total:     p.Total,
		CreatedAt: now().UTC(),
	}
	evt := g.Logger.Info().
		Str("reference", receipt.Reference).
		Str("product_id", p.ProductID).
		Bool("subscribe", p.Subscribe).
		Int("qty", p.Qty).
		Int64("subtotal", p.Subtotal).
		Int64("discount", p.Discount).
		Int64("total", p.Total)
	if p.Coupon != nil {
		evt = evt.Str("coupon", *p.Coupon)
	}
	if p.Ref != nil {
		evt = evt.Str("ref", *p.Ref)
	}
	evt.Msg("checkout simulated")
	return receipt, nil
}
