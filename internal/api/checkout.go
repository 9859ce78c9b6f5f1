package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/model"
)

// CheckoutRequest is a one-shot order submission: the selected cart lines,
// their total quantity, the delivery target and the display currency.
type CheckoutRequest struct {
	Cart          []model.CartLine `json:"cart"`
	TotalQuantity int              `json:"totalQuantity"`
	Location      model.Location   `json:"location"`
	Currency      string           `json:"currency"`
}

// Checkout submits an order. Each attempt carries a fresh idempotency key so
// a duplicate delivery of the same attempt cannot double-charge, while a
// deliberate resubmission after failure counts as a new attempt.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) error {
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	return c.do(ctx, http.MethodPost, "/checkout", headers, req, nil)
}
