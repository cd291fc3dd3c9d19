// server/internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tilapia-hub-api-server/internal/auth"
	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// DemoPassword is the sign-in password of every seeded farmer.
const DemoPassword = "tilapia123"

type demoFarmer struct {
	Name      string
	Location  string
	Phone     string
	Verified  bool
	Price     float64
	Size      models.SizeCategory
	Available float64
}

var demoFarmers = []demoFarmer{
	{"John Ochieng", "Kisumu", "+254 712 345 678", true, 450, models.Size500gTo1kg, 200},
	{"Mary Wanjiku", "Nairobi", "+254 723 456 789", true, 480, models.Size300To500g, 150},
	{"Peter Kamau", "Mombasa", "+254 734 567 890", false, 420, models.Size1kgPlus, 300},
	{"Grace Akinyi", "Nakuru", "+254 745 678 901", true, 460, models.Size500gTo1kg, 180},
	{"David Mwangi", "Eldoret", "+254 756 789 012", true, 440, models.Size300To500g, 250},
	{"Faith Njeri", "Thika", "+254 767 890 123", false, 470, models.Size1kgPlus, 120},
}

// SeedTarget is what the seeder writes to.
type SeedTarget interface {
	ledger.ProfileStore
	InsertListing(ctx context.Context, l *models.Listing) error
}

func demoEmail(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@demo.tilapiahub.co.ke"
}

// SeedDemoMarketplace creates the demo farmers with one active listing each.
// It does nothing when the first demo farmer already exists.
func SeedDemoMarketplace(ctx context.Context, target SeedTarget) error {
	// Kiểm tra xem dữ liệu demo đã tồn tại chưa
	_, err := target.GetProfileByEmail(ctx, demoEmail(demoFarmers[0].Name))
	if err == nil {
		log.Println("Demo marketplace already exists. Seeding skipped.")
		return nil
	}
	if !errors.Is(err, ledger.ErrNoDocument) {
		return err
	}

	log.Println("Demo marketplace not found. Seeding...")
	hashedPassword, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, f := range demoFarmers {
		// Newest first in the marketplace, so John Ochieng gets the latest timestamp.
		at := now.Add(-time.Duration(i) * time.Minute)
		profile := &models.Profile{
			ID:           uuid.NewString(),
			Email:        demoEmail(f.Name),
			PasswordHash: hashedPassword,
			FullName:     f.Name,
			Phone:        f.Phone,
			Location:     f.Location,
			Role:         models.RoleFarmer,
			Verified:     f.Verified,
			CreatedAt:    at,
			UpdatedAt:    at,
		}
		if err := target.InsertProfile(ctx, profile); err != nil {
			return fmt.Errorf("seed farmer %s: %w", f.Name, err)
		}

		listing := &models.Listing{
			ID:           ulid.Make().String(),
			FarmerID:     profile.ID,
			PricePerKg:   f.Price,
			SizeCategory: f.Size,
			AvailableKg:  f.Available,
			Description:  fmt.Sprintf("Fresh tilapia from %s", f.Location),
			IsActive:     true,
			CreatedAt:    at,
			UpdatedAt:    at,
		}
		if err := target.InsertListing(ctx, listing); err != nil {
			return fmt.Errorf("seed listing for %s: %w", f.Name, err)
		}
	}

	log.Printf("Seeded %d demo farmers and listings.", len(demoFarmers))
	return nil
}
