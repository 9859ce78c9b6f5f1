package delivery

import (
	"context"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/storage"
)

// Calculator is the slice of the REST client the estimator needs.
type Calculator interface {
	CalculateDelivery(ctx context.Context, req api.DeliveryCalcRequest) ([]model.ProductEstimate, error)
}

// Estimator keeps per-product delivery-day estimates in sync with the
// delivery target, speed tier and cart contents. Each recompute issues one
// request tagged with a generation counter; a response whose generation is
// no longer current is discarded, so the last-issued request wins even when
// responses resolve out of order.
type Estimator struct {
	mu      sync.Mutex
	persist storage.Store
	calc    Calculator

	target     *model.Location
	speed      model.DeliverySpeed
	productIDs []int
	estimates  map[int]int
	generation uint64

	timeout  time.Duration
	requests sync.WaitGroup
}

// NewEstimator restores the persisted delivery target and speed preference.
func NewEstimator(persist storage.Store, calc Calculator) *Estimator {
	e := &Estimator{
		persist:   persist,
		calc:      calc,
		speed:     model.DeliverySpeedRegular,
		estimates: make(map[int]int),
		timeout:   30 * time.Second,
	}

	var loc model.Location
	ok, err := storage.GetJSON(persist, storage.KeyLocation, &loc)
	if err != nil {
		log.Printf("[Delivery] Failed to restore delivery target: %v", err)
	} else if ok {
		e.target = &loc
	}

	if speed, err := persist.Get(storage.KeyDeliverySpeed); err == nil {
		switch model.DeliverySpeed(speed) {
		case model.DeliverySpeedRegular, model.DeliverySpeedFast:
			e.speed = model.DeliverySpeed(speed)
		}
	}
	return e
}

// Target returns a copy of the selected delivery target, or nil.
func (e *Estimator) Target() *model.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.target == nil {
		return nil
	}
	loc := *e.target
	return &loc
}

// Speed returns the selected courier speed tier.
func (e *Estimator) Speed() model.DeliverySpeed {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetTarget selects a delivery target, persists it and recomputes estimates.
func (e *Estimator) SetTarget(loc model.Location) {
	e.mu.Lock()
	e.target = &loc
	if loc.Speed != "" {
		e.speed = loc.Speed
	}

	if err := storage.SetJSON(e.persist, storage.KeyLocation, loc); err != nil {
		log.Printf("[Delivery] Failed to persist delivery target: %v", err)
	}
	_ = e.persist.Set(storage.KeyZoneID, strconv.Itoa(loc.ZoneID))
	_ = e.persist.Set(storage.KeyDeliveryMode, string(loc.Mode))
	_ = e.persist.Set(storage.KeyDeliverySpeed, string(e.speed))
	_ = e.persist.Set(storage.KeyDeliveryCost, strconv.FormatFloat(Cost(&loc, e.speed), 'f', -1, 64))
	e.recomputeLocked()
	e.mu.Unlock()
}

// SetSpeed selects the courier speed tier, persists it and recomputes.
func (e *Estimator) SetSpeed(speed model.DeliverySpeed) {
	e.mu.Lock()
	if e.speed == speed {
		e.mu.Unlock()
		return
	}
	e.speed = speed
	_ = e.persist.Set(storage.KeyDeliverySpeed, string(speed))
	_ = e.persist.Set(storage.KeyDeliveryCost, strconv.FormatFloat(Cost(e.target, speed), 'f', -1, 64))
	e.recomputeLocked()
	e.mu.Unlock()
}

// OnCartChanged recomputes when the effective product id set changes. Ids
// are deduped and sorted first, so reorderings and quantity-only changes do
// not trigger a request.
func (e *Estimator) OnCartChanged(lines []model.CartLine) {
	ids := make([]int, 0, len(lines))
	seen := make(map[int]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	sort.Ints(ids)

	e.mu.Lock()
	if equalIDs(ids, e.productIDs) {
		e.mu.Unlock()
		return
	}
	e.productIDs = ids
	e.recomputeLocked()
	e.mu.Unlock()
}

// Estimates returns a copy of the current productID -> delivery days map.
func (e *Estimator) Estimates() map[int]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[int]int, len(e.estimates))
	for id, days := range e.estimates {
		out[id] = days
	}
	return out
}

// EstimateFor returns the delivery days for one product, if known.
func (e *Estimator) EstimateFor(productID int) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	days, ok := e.estimates[productID]
	return days, ok
}

// Flush waits for outstanding estimate requests. Intended for shutdown and
// tests.
func (e *Estimator) Flush() {
	e.requests.Wait()
}

// recomputeLocked issues a new estimate request for the current inputs.
// Callers hold e.mu. Invalid inputs advance the generation without issuing
// a request, which also invalidates whatever is still in flight.
func (e *Estimator) recomputeLocked() {
	e.generation++
	gen := e.generation

	if len(e.productIDs) == 0 {
		e.estimates = make(map[int]int)
		return
	}
	if e.target == nil {
		return
	}

	req := api.DeliveryCalcRequest{
		ProductIDs: append([]int(nil), e.productIDs...),
		Mode:       e.target.Mode,
	}
	switch e.target.Mode {
	case model.DeliveryModeCourier:
		if !e.target.Coordinates.Valid() {
			// Treated as "no target selected yet", not an error.
			return
		}
		coords := e.target.Coordinates
		req.Speed = e.speed
		req.Coordinates = &coords
	case model.DeliveryModePickup:
		req.LocationID = e.target.ID
	default:
		return
	}

	e.requests.Add(1)
	go func() {
		defer e.requests.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		estimates, err := e.calc.CalculateDelivery(ctx, req)
		if err != nil {
			log.Printf("[Delivery] Estimate request failed: %v", err)
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.generation {
			// A newer target/speed/cart superseded this request.
			return
		}
		next := make(map[int]int, len(estimates))
		for _, est := range estimates {
			next[est.ProductID] = est.DeliveryDays
		}
		e.estimates = next
	}()
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
