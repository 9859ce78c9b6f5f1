package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/currency"
	"github.com/example/storefront/internal/delivery"
	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/internal/selection"
)

var (
	ErrNoDeliveryTarget = errors.New("select a delivery method before ordering")
	ErrNothingSelected  = errors.New("select at least one item to order")
	ErrMissingAddress   = errors.New("courier delivery requires an address")
)

// Submitter is the slice of the REST client the orchestrator needs.
type Submitter interface {
	Checkout(ctx context.Context, req api.CheckoutRequest) error
}

// Orchestrator turns the selected cart lines into an order. Preconditions
// are validated locally; nothing is sent and nothing changes when they fail.
// The cart and selection are only touched after the server acknowledges.
type Orchestrator struct {
	cart      *cart.Store
	selection *selection.Tracker
	estimator *delivery.Estimator
	converter *currency.Converter
	api       Submitter
	sink      notify.Sink
}

func NewOrchestrator(
	cartStore *cart.Store,
	sel *selection.Tracker,
	est *delivery.Estimator,
	conv *currency.Converter,
	submitter Submitter,
	sink notify.Sink,
) *Orchestrator {
	return &Orchestrator{
		cart:      cartStore,
		selection: sel,
		estimator: est,
		converter: conv,
		api:       submitter,
		sink:      sink,
	}
}

// Checkout submits the selected lines as one order.
func (o *Orchestrator) Checkout(ctx context.Context) error {
	target := o.estimator.Target()
	if target == nil {
		o.sink.Error(ErrNoDeliveryTarget.Error())
		return ErrNoDeliveryTarget
	}
	if target.Mode == model.DeliveryModeCourier && strings.TrimSpace(target.Address) == "" {
		o.sink.Error(ErrMissingAddress.Error())
		return ErrMissingAddress
	}

	selected := o.selectedLines()
	if len(selected) == 0 {
		o.sink.Error(ErrNothingSelected.Error())
		return ErrNothingSelected
	}

	target.Speed = o.estimator.Speed()
	req := api.CheckoutRequest{
		Cart:          selected,
		TotalQuantity: model.TotalQuantity(selected),
		Location:      *target,
		Currency:      o.converter.Active(),
	}

	if err := o.api.Checkout(ctx, req); err != nil {
		// Server message verbatim; cart and selection stay as they were.
		o.sink.Error(err.Error())
		return err
	}

	ids := make([]int, len(selected))
	for i, l := range selected {
		ids[i] = l.ProductID
	}
	o.cart.RemoveMany(ids)
	o.selection.Clear()
	o.sink.Success("Order placed successfully")
	return nil
}

// selectedLines returns cart lines currently marked for checkout, in cart
// order.
func (o *Orchestrator) selectedLines() []model.CartLine {
	var selected []model.CartLine
	for _, l := range o.cart.Items() {
		if o.selection.IsSelected(l.ProductID) {
			selected = append(selected, l)
		}
	}
	return selected
}

// Total returns the order total for the current selection in the active
// display currency: discounted line prices plus the delivery surcharge.
func (o *Orchestrator) Total() int {
	total := 0
	for _, l := range o.selectedLines() {
		total += l.Quantity * o.converter.Convert(l.EffectivePrice())
	}
	total += o.converter.Convert(delivery.Cost(o.estimator.Target(), o.estimator.Speed()))
	return total
}
