package ledger

import "tilapia-hub-api-server/internal/models"

// Actor is the authenticated identity performing an operation.
// It is resolved once per request by the identity provider and passed
// explicitly into every ledger call.
type Actor struct {
	ID   string
	Role models.Role
}

func (a Actor) IsFarmer() bool { return a.Role == models.RoleFarmer }
func (a Actor) IsBuyer() bool  { return a.Role == models.RoleBuyer }

// --- Authorization predicates, one per operation ---

func canCreateListing(a Actor) bool {
	return a.ID != "" && a.IsFarmer()
}

func canEditListing(a Actor, l *models.Listing) bool {
	return a.IsFarmer() && a.ID == l.FarmerID
}

func canPlaceOrder(a Actor) bool {
	return a.ID != "" && a.IsBuyer()
}

func canViewOrder(a Actor, o *models.Order) bool {
	return (a.IsBuyer() && a.ID == o.BuyerID) || (a.IsFarmer() && a.ID == o.FarmerID)
}

func canSchedulePickup(a Actor, o *models.Order) bool {
	return a.IsFarmer() && a.ID == o.FarmerID
}
