package ledger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"time"

	"tilapia-hub-api-server/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// PlaceOrder reserves quantityKg from a listing on behalf of a buyer.
// The stock decrement and the order insert are one store write, so two
// buyers can never together reserve more than the listing holds.
func (l *Ledger) PlaceOrder(ctx context.Context, actor Actor, listingID string, quantityKg float64) (order *models.Order, err error) {
	const op = "ledger.PlaceOrder"
	ctx, span := l.start(ctx, op, actor,
		attribute.String("listing.id", listingID),
		attribute.Float64("order.quantity_kg", quantityKg),
	)
	defer finish(span, &err)

	if !canPlaceOrder(actor) {
		return nil, newError(op, ErrAuthorization, listingID, "only buyers can place orders")
	}
	// Non-positive or non-finite amounts are rejected as input errors before
	// the listing is read, not reported as insufficient stock.
	if !(quantityKg > 0) || math.IsInf(quantityKg, 1) {
		return nil, newError(op, ErrValidation, listingID, "quantity must be a positive number of kilograms")
	}

	// 1. Resolve listing
	listing, err := l.store.GetListing(ctx, listingID)
	if errors.Is(err, ErrNoDocument) {
		return nil, newError(op, ErrNotFound, listingID, "listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: get listing: %w", op, err)
	}
	if !listing.IsActive {
		return nil, newError(op, ErrNotFound, listingID, "listing is not available")
	}

	// 2. Check stock
	if quantityKg > listing.AvailableKg {
		return nil, insufficient(op, listingID, quantityKg, listing.AvailableKg)
	}

	// 3. Freeze price and pickup point
	farmer, err := l.publicProfile(ctx, listing.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := l.now()
	order = &models.Order{
		ID:             l.newID(),
		ListingID:      listing.ID,
		BuyerID:        actor.ID,
		FarmerID:       listing.FarmerID,
		QuantityKg:     quantityKg,
		PricePerKg:     listing.PricePerKg,
		SizeCategory:   listing.SizeCategory,
		TotalPrice:     quantityKg * listing.PricePerKg,
		Status:         models.OrderPending,
		PickupLocation: farmer.Location,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// 4. Reserve and insert atomically
	err = l.store.PlaceOrder(ctx, order)
	if errors.Is(err, ErrConditionFailed) {
		// Someone else changed the listing since step 1.
		current, gerr := l.store.GetListing(ctx, listingID)
		if errors.Is(gerr, ErrNoDocument) {
			return nil, newError(op, ErrNotFound, listingID, "listing is not available")
		}
		if gerr != nil {
			return nil, fmt.Errorf("%s: reload listing: %w", op, gerr)
		}
		if !current.IsActive {
			return nil, newError(op, ErrNotFound, listingID, "listing is not available")
		}
		return nil, insufficient(op, listingID, quantityKg, current.AvailableKg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reserve stock: %w", op, err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	return order, nil
}

func insufficient(op, listingID string, requested, available float64) *Error {
	return newError(op, ErrInsufficientStock, listingID,
		"requested %gkg but only %gkg available", requested, available)
}

func (l *Ledger) loadOrder(ctx context.Context, op string, actor Actor, id string) (*models.Order, error) {
	order, err := l.store.GetOrder(ctx, id)
	if errors.Is(err, ErrNoDocument) {
		return nil, newError(op, ErrNotFound, id, "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: get order: %w", op, err)
	}
	if !canViewOrder(actor, order) {
		return nil, newError(op, ErrAuthorization, id, "you are not a party to this order")
	}
	return order, nil
}

// GetOrder returns an order to its buyer or farmer.
func (l *Ledger) GetOrder(ctx context.Context, actor Actor, id string) (view *models.OrderView, err error) {
	const op = "ledger.GetOrder"
	ctx, span := l.start(ctx, op, actor, attribute.String("order.id", id))
	defer finish(span, &err)

	order, err := l.loadOrder(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}
	v, err := l.orderView(ctx, actor, *order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}

// Transition moves an order along the status machine.
func (l *Ledger) Transition(ctx context.Context, actor Actor, id string, to models.OrderStatus) (order *models.Order, err error) {
	const op = "ledger.Transition"
	ctx, span := l.start(ctx, op, actor,
		attribute.String("order.id", id),
		attribute.String("order.to", string(to)),
	)
	defer finish(span, &err)

	current, err := l.loadOrder(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}
	e, ok := lookupEdge(current.Status, to)
	if !ok {
		return nil, newError(op, ErrInvalidTransition, id, "cannot move order from %s to %s", current.Status, to)
	}
	if !e.allowed(actor, current) {
		return nil, newError(op, ErrAuthorization, id, "a %s cannot move this order to %s", actor.Role, to)
	}

	update := OrderUpdate{
		From:             current.Status,
		To:               to,
		PaymentConfirmed: e.confirmsPayment,
		At:               l.now(),
	}
	if e.restocks {
		update.ListingID = current.ListingID
		update.RestockKg = current.QuantityKg
	}

	order, err = l.store.TransitionOrder(ctx, id, update)
	if errors.Is(err, ErrConditionFailed) {
		return nil, newError(op, ErrInvalidTransition, id, "order is no longer %s", current.Status)
	}
	if errors.Is(err, ErrNoDocument) {
		return nil, newError(op, ErrNotFound, id, "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: update order: %w", op, err)
	}
	return order, nil
}

func (l *Ledger) ConfirmOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	return l.Transition(ctx, actor, id, models.OrderConfirmed)
}

func (l *Ledger) CancelOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	return l.Transition(ctx, actor, id, models.OrderCancelled)
}

func (l *Ledger) MarkPickedUp(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	return l.Transition(ctx, actor, id, models.OrderPickedUp)
}

func (l *Ledger) ConfirmPayment(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	return l.Transition(ctx, actor, id, models.OrderPaid)
}

// pickupSchedulable lists the statuses in which the pickup date may change.
var pickupSchedulable = []models.OrderStatus{models.OrderPending, models.OrderConfirmed}

// SchedulePickup sets the pickup date of an order that has not been collected yet.
func (l *Ledger) SchedulePickup(ctx context.Context, actor Actor, id string, date time.Time) (order *models.Order, err error) {
	const op = "ledger.SchedulePickup"
	ctx, span := l.start(ctx, op, actor, attribute.String("order.id", id))
	defer finish(span, &err)

	if date.IsZero() {
		return nil, newError(op, ErrValidation, id, "pickup date is required")
	}
	current, err := l.loadOrder(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}
	if !canSchedulePickup(actor, current) {
		return nil, newError(op, ErrAuthorization, id, "only the farmer can schedule the pickup")
	}
	if current.Status != models.OrderPending && current.Status != models.OrderConfirmed {
		return nil, newError(op, ErrInvalidTransition, id, "pickup cannot be scheduled for a %s order", current.Status)
	}

	order, err = l.store.SetPickupDate(ctx, id, date.UTC(), pickupSchedulable, l.now())
	if errors.Is(err, ErrConditionFailed) {
		return nil, newError(op, ErrInvalidTransition, id, "order can no longer be scheduled")
	}
	if errors.Is(err, ErrNoDocument) {
		return nil, newError(op, ErrNotFound, id, "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: set pickup date: %w", op, err)
	}
	return order, nil
}

// ListOrdersForActor yields the actor's orders newest first, each joined with
// the counterparty's public profile.
func (l *Ledger) ListOrdersForActor(ctx context.Context, actor Actor) iter.Seq2[models.OrderView, error] {
	return func(yield func(models.OrderView, error) bool) {
		var q OrderQuery
		switch actor.Role {
		case models.RoleFarmer:
			q.FarmerID = actor.ID
		case models.RoleBuyer:
			q.BuyerID = actor.ID
		default:
			yield(models.OrderView{}, newError("ledger.ListOrdersForActor", ErrAuthorization, "", "unknown role %q", actor.Role))
			return
		}
		if actor.ID == "" {
			yield(models.OrderView{}, newError("ledger.ListOrdersForActor", ErrAuthorization, "", "missing actor"))
			return
		}

		profiles := make(map[string]models.PublicProfile)
		for order, err := range l.store.FindOrders(ctx, q) {
			if err != nil {
				yield(models.OrderView{}, err)
				return
			}
			v, err := l.orderViewCached(ctx, actor, order, profiles)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

func (l *Ledger) orderView(ctx context.Context, actor Actor, o models.Order) (models.OrderView, error) {
	return l.orderViewCached(ctx, actor, o, nil)
}

func (l *Ledger) orderViewCached(ctx context.Context, actor Actor, o models.Order, cache map[string]models.PublicProfile) (models.OrderView, error) {
	counterparty := o.FarmerID
	if actor.IsFarmer() {
		counterparty = o.BuyerID
	}
	p, ok := cache[counterparty]
	if !ok {
		var err error
		p, err = l.publicProfile(ctx, counterparty)
		if err != nil {
			return models.OrderView{}, err
		}
		if cache != nil {
			cache[counterparty] = p
		}
	}

	v := models.OrderView{Order: o}
	if actor.IsFarmer() {
		// Buyers' locations stay private.
		p.Location = ""
		v.Buyer = &p
	} else {
		v.Farmer = &p
	}
	return v, nil
}
