package ledger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"

	"tilapia-hub-api-server/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// NewListing is the farmer's input for a new listing.
type NewListing struct {
	PricePerKg   float64             `json:"pricePerKg"`
	SizeCategory models.SizeCategory `json:"sizeCategory"`
	AvailableKg  float64             `json:"availableKg"`
	Description  string              `json:"description"`
}

// ListingFilter narrows the buyer-facing marketplace.
type ListingFilter struct {
	// LocationEquals matches the owner's location exactly. Empty or "All" disables it.
	LocationEquals string
	// SearchText matches owner name or location, case-insensitive substring.
	SearchText string
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 1)
}

func validQuantity(q float64) bool {
	return q >= 0 && !math.IsInf(q, 1)
}

func (l *Ledger) CreateListing(ctx context.Context, actor Actor, in NewListing) (listing *models.Listing, err error) {
	const op = "ledger.CreateListing"
	ctx, span := l.start(ctx, op, actor)
	defer finish(span, &err)

	if !canCreateListing(actor) {
		return nil, newError(op, ErrAuthorization, "", "only farmers can create listings")
	}
	if !validPrice(in.PricePerKg) {
		return nil, newError(op, ErrValidation, "", "price per kg must be a positive number")
	}
	if !validQuantity(in.AvailableKg) {
		return nil, newError(op, ErrValidation, "", "available quantity must not be negative")
	}
	if !in.SizeCategory.Valid() {
		return nil, newError(op, ErrValidation, "", "unknown size category %q", in.SizeCategory)
	}

	now := l.now()
	listing = &models.Listing{
		ID:           l.newID(),
		FarmerID:     actor.ID,
		PricePerKg:   in.PricePerKg,
		SizeCategory: in.SizeCategory,
		AvailableKg:  in.AvailableKg,
		Description:  strings.TrimSpace(in.Description),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.store.InsertListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("%s: insert listing: %w", op, err)
	}
	return listing, nil
}

// loadOwnedListing fetches a listing and checks that actor owns it.
func (l *Ledger) loadOwnedListing(ctx context.Context, op string, actor Actor, id string) (*models.Listing, error) {
	listing, err := l.store.GetListing(ctx, id)
	if errors.Is(err, ErrNoDocument) {
		return nil, newError(op, ErrNotFound, id, "listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: get listing: %w", op, err)
	}
	if !canEditListing(actor, listing) {
		return nil, newError(op, ErrAuthorization, id, "only the owning farmer can change this listing")
	}
	return listing, nil
}

// CheckListingOwner returns nil when actor may edit listing id.
func (l *Ledger) CheckListingOwner(ctx context.Context, actor Actor, id string) error {
	_, err := l.loadOwnedListing(ctx, "ledger.CheckListingOwner", actor, id)
	return err
}

func (l *Ledger) UpdateListing(ctx context.Context, actor Actor, id string, patch ListingPatch) (listing *models.Listing, err error) {
	const op = "ledger.UpdateListing"
	ctx, span := l.start(ctx, op, actor, attribute.String("listing.id", id))
	defer finish(span, &err)

	if _, err := l.loadOwnedListing(ctx, op, actor, id); err != nil {
		return nil, err
	}
	if patch.PricePerKg != nil && !validPrice(*patch.PricePerKg) {
		return nil, newError(op, ErrValidation, id, "price per kg must be a positive number")
	}
	if patch.AvailableKg != nil && !validQuantity(*patch.AvailableKg) {
		return nil, newError(op, ErrValidation, id, "available quantity must not be negative")
	}
	if patch.SizeCategory != nil && !patch.SizeCategory.Valid() {
		return nil, newError(op, ErrValidation, id, "unknown size category %q", *patch.SizeCategory)
	}
	if patch.Description != nil {
		d := strings.TrimSpace(*patch.Description)
		patch.Description = &d
	}

	listing, err = l.store.UpdateListing(ctx, id, patch, l.now())
	if errors.Is(err, ErrNoDocument) {
		return nil, newError(op, ErrNotFound, id, "listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: update listing: %w", op, err)
	}
	return listing, nil
}

// DeleteListing removes the listing permanently. Orders placed against it
// keep their own price, size and pickup snapshot.
func (l *Ledger) DeleteListing(ctx context.Context, actor Actor, id string) (err error) {
	const op = "ledger.DeleteListing"
	ctx, span := l.start(ctx, op, actor, attribute.String("listing.id", id))
	defer finish(span, &err)

	if _, err := l.loadOwnedListing(ctx, op, actor, id); err != nil {
		return err
	}
	err = l.store.DeleteListing(ctx, id)
	if errors.Is(err, ErrNoDocument) {
		return newError(op, ErrNotFound, id, "listing not found")
	}
	if err != nil {
		return fmt.Errorf("%s: delete listing: %w", op, err)
	}
	return nil
}

// GetListing returns an active listing, or any listing to its owner.
func (l *Ledger) GetListing(ctx context.Context, actor Actor, id string) (view *models.ListingView, err error) {
	const op = "ledger.GetListing"
	ctx, span := l.start(ctx, op, actor, attribute.String("listing.id", id))
	defer finish(span, &err)

	listing, err := l.store.GetListing(ctx, id)
	if errors.Is(err, ErrNoDocument) {
		return nil, newError(op, ErrNotFound, id, "listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: get listing: %w", op, err)
	}
	if !listing.IsActive && !canEditListing(actor, listing) {
		return nil, newError(op, ErrNotFound, id, "listing not found")
	}
	owner, err := l.publicProfile(ctx, listing.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.ListingView{Listing: *listing, Farmer: owner}, nil
}

// ListMyListings yields the farmer's own listings, inactive ones included.
func (l *Ledger) ListMyListings(ctx context.Context, actor Actor) iter.Seq2[models.Listing, error] {
	return func(yield func(models.Listing, error) bool) {
		if !actor.IsFarmer() {
			yield(models.Listing{}, newError("ledger.ListMyListings", ErrAuthorization, "", "only farmers have listings"))
			return
		}
		for listing, err := range l.store.FindListings(ctx, ListingQuery{FarmerID: actor.ID}) {
			if !yield(listing, err) || err != nil {
				return
			}
		}
	}
}

// ListActiveListings yields active listings joined with the owner's public
// profile, newest first. The sequence is lazy and may be ranged over again.
func (l *Ledger) ListActiveListings(ctx context.Context, f ListingFilter) iter.Seq2[models.ListingView, error] {
	search := strings.ToLower(strings.TrimSpace(f.SearchText))
	location := strings.TrimSpace(f.LocationEquals)
	if location == models.LocationAll {
		location = ""
	}

	return func(yield func(models.ListingView, error) bool) {
		owners := make(map[string]models.PublicProfile)
		for listing, err := range l.store.FindListings(ctx, ListingQuery{ActiveOnly: true}) {
			if err != nil {
				yield(models.ListingView{}, err)
				return
			}
			owner, ok := owners[listing.FarmerID]
			if !ok {
				owner, err = l.publicProfile(ctx, listing.FarmerID)
				if err != nil {
					yield(models.ListingView{}, err)
					return
				}
				owners[listing.FarmerID] = owner
			}
			if location != "" && owner.Location != location {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(owner.FullName), search) &&
				!strings.Contains(strings.ToLower(owner.Location), search) {
				continue
			}
			if !yield(models.ListingView{Listing: listing, Farmer: owner}, nil) {
				return
			}
		}
	}
}

// publicProfile resolves a profile for display. A missing profile yields an
// id-only stub rather than failing the whole read.
func (l *Ledger) publicProfile(ctx context.Context, id string) (models.PublicProfile, error) {
	p, err := l.store.GetProfile(ctx, id)
	if errors.Is(err, ErrNoDocument) {
		return models.PublicProfile{ID: id}, nil
	}
	if err != nil {
		return models.PublicProfile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p.Public(), nil
}
