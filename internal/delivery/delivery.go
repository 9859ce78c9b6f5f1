package delivery

import (
	"github.com/example/storefront/internal/model"
)

// Courier surcharge in base-currency units. Pickup is free.
const (
	CourierCostRegular = 320
	CourierCostFast    = 600
)

// Cost returns the delivery surcharge for the given target and speed tier.
func Cost(target *model.Location, speed model.DeliverySpeed) float64 {
	if target == nil || target.Mode != model.DeliveryModeCourier {
		return 0
	}
	if speed == model.DeliverySpeedFast {
		return CourierCostFast
	}
	return CourierCostRegular
}
