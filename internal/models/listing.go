// server/internal/models/listing.go
package models

import "time"

// Listing là một lô cá rô phi do người nuôi đăng bán.
type Listing struct {
	ID           string       `bson:"_id" json:"id"`
	FarmerID     string       `bson:"farmerId" json:"farmerId"`
	PricePerKg   float64      `bson:"pricePerKg" json:"pricePerKg"`
	SizeCategory SizeCategory `bson:"sizeCategory" json:"sizeCategory"`
	AvailableKg  float64      `bson:"availableKg" json:"availableKg"`
	Description  string       `bson:"description" json:"description"`
	PhotoURL     string       `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	IsActive     bool         `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// ListingView is a listing joined with its owner's public profile.
type ListingView struct {
	Listing
	Farmer PublicProfile `json:"farmer"`
}
