package api

import (
	"context"
	"net/http"

	"github.com/example/storefront/internal/model"
)

// UserOrders fetches the authenticated user's purchase history.
func (c *Client) UserOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/orders/user-orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
