package api

import (
	"context"
	"net/http"

	"github.com/example/storefront/internal/model"
)

// DeliveryCalcRequest is the body of POST /delivery/calculate. Exactly one
// of LocationID (pickup) or Coordinates+Speed (courier) is set.
type DeliveryCalcRequest struct {
	ProductIDs  []int               `json:"productIds"`
	Mode        model.DeliveryMode  `json:"deliveryMode"`
	Speed       model.DeliverySpeed `json:"deliverySpeed,omitempty"`
	Coordinates *model.Coordinates  `json:"coordinates,omitempty"`
	LocationID  int                 `json:"locationId,omitempty"`
}

// CalculateDelivery requests per-product delivery-day estimates.
func (c *Client) CalculateDelivery(ctx context.Context, req DeliveryCalcRequest) ([]model.ProductEstimate, error) {
	var estimates []model.ProductEstimate
	if err := c.do(ctx, http.MethodPost, "/delivery/calculate", nil, req, &estimates); err != nil {
		return nil, err
	}
	return estimates, nil
}

// DeliveryPoints lists all pickup points.
func (c *Client) DeliveryPoints(ctx context.Context) ([]model.DeliveryPoint, error) {
	var points []model.DeliveryPoint
	if err := c.do(ctx, http.MethodGet, "/delivery/points", nil, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// DeliveryZones lists delivery zones with their pickup points.
func (c *Client) DeliveryZones(ctx context.Context) ([]model.DeliveryZone, error) {
	var zones []model.DeliveryZone
	if err := c.do(ctx, http.MethodGet, "/delivery/zones", nil, nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}
