// server/internal/models/order.go
package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPickedUp  OrderStatus = "picked_up"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition can leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderPaid || s == OrderCancelled
}

// Order là yêu cầu mua của người mua đối với một listing.
// Price, size and pickup location are snapshots taken when the order is placed.
type Order struct {
	ID               string       `bson:"_id" json:"id"`
	ListingID        string       `bson:"listingId" json:"listingId"`
	BuyerID          string       `bson:"buyerId" json:"buyerId"`
	FarmerID         string       `bson:"farmerId" json:"farmerId"`
	QuantityKg       float64      `bson:"quantityKg" json:"quantityKg"`
	PricePerKg       float64      `bson:"pricePerKg" json:"pricePerKg"`
	SizeCategory     SizeCategory `bson:"sizeCategory" json:"sizeCategory"`
	TotalPrice       float64      `bson:"totalPrice" json:"totalPrice"`
	Status           OrderStatus  `bson:"status" json:"status"`
	PickupLocation   string       `bson:"pickupLocation" json:"pickupLocation"`
	PickupDate       *time.Time   `bson:"pickupDate,omitempty" json:"pickupDate"`
	PaymentConfirmed bool         `bson:"paymentConfirmed" json:"paymentConfirmed"`
	CreatedAt        time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// OrderView is an order joined with the counterparty of the viewing actor.
// Buyers see the farmer, farmers see the buyer.
type OrderView struct {
	Order
	Farmer *PublicProfile `json:"farmer,omitempty"`
	Buyer  *PublicProfile `json:"buyer,omitempty"`
}
