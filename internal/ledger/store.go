package ledger

import (
	"context"
	"iter"
	"time"

	"tilapia-hub-api-server/internal/models"
)

// ListingQuery selects listings from the store. Zero values mean "any".
type ListingQuery struct {
	FarmerID   string
	ActiveOnly bool
}

// OrderQuery selects orders by one side of the order.
type OrderQuery struct {
	BuyerID  string
	FarmerID string
}

// ListingPatch holds the owner-editable fields; nil means unchanged.
type ListingPatch struct {
	PricePerKg   *float64             `json:"pricePerKg"`
	SizeCategory *models.SizeCategory `json:"sizeCategory"`
	AvailableKg  *float64             `json:"availableKg"`
	Description  *string              `json:"description"`
	IsActive     *bool                `json:"isActive"`
	PhotoURL     *string              `json:"-"`
}

// OrderUpdate is a conditional status change. It applies only while the
// stored status still equals From.
type OrderUpdate struct {
	From             models.OrderStatus
	To               models.OrderStatus
	PaymentConfirmed bool
	// When RestockKg > 0 the listing ListingID gets the amount back in the
	// same write. A listing that no longer exists is skipped.
	ListingID string
	RestockKg float64
	At        time.Time
}

// Store is the persistent record keeper behind the ledger.
//
// Implementations must make PlaceOrder a single atomic unit: the listing's
// available quantity is decremented and the order inserted together, or
// neither happens. The same holds for TransitionOrder with a restock.
type Store interface {
	InsertListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	UpdateListing(ctx context.Context, id string, patch ListingPatch, at time.Time) (*models.Listing, error)
	DeleteListing(ctx context.Context, id string) error
	// FindListings yields newest first. Each range runs a fresh query.
	FindListings(ctx context.Context, q ListingQuery) iter.Seq2[models.Listing, error]

	// PlaceOrder reserves o.QuantityKg from listing o.ListingID and inserts o.
	// It returns ErrConditionFailed when the listing is missing, inactive or
	// holds less than o.QuantityKg.
	PlaceOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// TransitionOrder returns ErrConditionFailed when the status is no longer u.From.
	TransitionOrder(ctx context.Context, id string, u OrderUpdate) (*models.Order, error)
	// SetPickupDate returns ErrConditionFailed when the status is not in allowed.
	SetPickupDate(ctx context.Context, id string, date time.Time, allowed []models.OrderStatus, at time.Time) (*models.Order, error)
	// FindOrders yields newest first. Each range runs a fresh query.
	FindOrders(ctx context.Context, q OrderQuery) iter.Seq2[models.Order, error]

	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// ProfileStore is the part of the store the identity provider writes to.
type ProfileStore interface {
	InsertProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch, at time.Time) (*models.Profile, error)
}

// ProfilePatch holds the self-editable profile fields; nil means unchanged.
type ProfilePatch struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}
