package ledger

import "tilapia-hub-api-server/internal/models"

// edge is one row of the order transition table.
type edge struct {
	allowed         func(Actor, *models.Order) bool
	restocks        bool
	confirmsPayment bool
}

func orderFarmer(a Actor, o *models.Order) bool {
	return a.IsFarmer() && a.ID == o.FarmerID
}

func orderParty(a Actor, o *models.Order) bool {
	return orderFarmer(a, o) || (a.IsBuyer() && a.ID == o.BuyerID)
}

// transitions lists every permitted status change. Anything missing here,
// confirmed -> cancelled included, is rejected with ErrInvalidTransition.
var transitions = map[models.OrderStatus]map[models.OrderStatus]edge{
	models.OrderPending: {
		models.OrderConfirmed: {allowed: orderFarmer},
		models.OrderCancelled: {allowed: orderParty, restocks: true},
	},
	models.OrderConfirmed: {
		models.OrderPickedUp: {allowed: orderFarmer},
	},
	models.OrderPickedUp: {
		models.OrderPaid: {allowed: orderFarmer, confirmsPayment: true},
	},
}

func lookupEdge(from, to models.OrderStatus) (edge, bool) {
	e, ok := transitions[from][to]
	return e, ok
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s models.OrderStatus) []models.OrderStatus {
	var out []models.OrderStatus
	for _, to := range []models.OrderStatus{
		models.OrderConfirmed, models.OrderPickedUp, models.OrderPaid, models.OrderCancelled,
	} {
		if _, ok := lookupEdge(s, to); ok {
			out = append(out, to)
		}
	}
	return out
}

// AllowedActions returns the statuses actor may move o to right now.
func AllowedActions(actor Actor, o *models.Order) []models.OrderStatus {
	var out []models.OrderStatus
	for _, to := range NextStatuses(o.Status) {
		if e, _ := lookupEdge(o.Status, to); e.allowed(actor, o) {
			out = append(out, to)
		}
	}
	return out
}
