package database

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// setupTestMongo connects to MONGO_TEST_URI and returns a store over a fresh
// database that is dropped when the test ends.
func setupTestMongo(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database(fmt.Sprintf("tilapia_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := NewMongoStore(db, os.Getenv("MONGO_TEST_TRANSACTIONS") == "true")
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func seedListing(t *testing.T, store *MongoStore, id string, kg float64) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.InsertListing(context.Background(), &models.Listing{
		ID: id, FarmerID: "farmer-1", PricePerKg: 450, SizeCategory: models.Size500gTo1kg,
		AvailableKg: kg, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))
}

func newOrder(id, listingID string, qty float64) *models.Order {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Order{
		ID: id, ListingID: listingID, BuyerID: "buyer-1", FarmerID: "farmer-1",
		QuantityKg: qty, PricePerKg: 450, TotalPrice: qty * 450,
		Status: models.OrderPending, CreatedAt: now, UpdatedAt: now,
	}
}

func TestMongoStore_PlaceOrder(t *testing.T) {
	store := setupTestMongo(t)
	ctx := context.Background()
	seedListing(t, store, "L1", 100)

	require.NoError(t, store.PlaceOrder(ctx, newOrder("O1", "L1", 60)))
	err := store.PlaceOrder(ctx, newOrder("O2", "L1", 60))
	assert.ErrorIs(t, err, ledger.ErrConditionFailed)

	l, err := store.GetListing(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, l.AvailableKg)

	_, err = store.GetOrder(ctx, "O2")
	assert.ErrorIs(t, err, ledger.ErrNoDocument)

	t.Run("duplicate order id restores stock", func(t *testing.T) {
		err := store.PlaceOrder(ctx, newOrder("O1", "L1", 10))
		assert.ErrorIs(t, err, ledger.ErrDuplicate)
		l, err := store.GetListing(ctx, "L1")
		require.NoError(t, err)
		assert.Equal(t, 40.0, l.AvailableKg)
	})
}

func TestMongoStore_PlaceOrderConcurrent(t *testing.T) {
	store := setupTestMongo(t)
	ctx := context.Background()
	seedListing(t, store, "L1", 10)

	var (
		wg sync.WaitGroup
		ok atomic.Int64
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if store.PlaceOrder(ctx, newOrder(fmt.Sprintf("O%02d", i), "L1", 1)) == nil {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(10), ok.Load())
	l, err := store.GetListing(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.AvailableKg)
}

func TestMongoStore_TransitionOrder(t *testing.T) {
	store := setupTestMongo(t)
	ctx := context.Background()
	seedListing(t, store, "L1", 100)
	require.NoError(t, store.PlaceOrder(ctx, newOrder("O1", "L1", 30)))

	at := time.Now().UTC()
	o, err := store.TransitionOrder(ctx, "O1", ledger.OrderUpdate{
		From: models.OrderPending, To: models.OrderCancelled, ListingID: "L1", RestockKg: 30, At: at,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, o.Status)

	l, err := store.GetListing(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, l.AvailableKg)

	_, err = store.TransitionOrder(ctx, "O1", ledger.OrderUpdate{From: models.OrderPending, To: models.OrderConfirmed, At: at})
	assert.ErrorIs(t, err, ledger.ErrConditionFailed)
	_, err = store.TransitionOrder(ctx, "missing", ledger.OrderUpdate{From: models.OrderPending, To: models.OrderConfirmed, At: at})
	assert.ErrorIs(t, err, ledger.ErrNoDocument)
}

func TestMongoStore_SetPickupDateAndFind(t *testing.T) {
	store := setupTestMongo(t)
	ctx := context.Background()
	seedListing(t, store, "L1", 100)
	require.NoError(t, store.PlaceOrder(ctx, newOrder("O1", "L1", 5)))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.PlaceOrder(ctx, newOrder("O2", "L1", 5)))

	when := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	o, err := store.SetPickupDate(ctx, "O1", when, []models.OrderStatus{models.OrderPending}, time.Now())
	require.NoError(t, err)
	require.NotNil(t, o.PickupDate)
	assert.True(t, when.Equal(*o.PickupDate))

	_, err = store.SetPickupDate(ctx, "O1", when, []models.OrderStatus{models.OrderConfirmed}, time.Now())
	assert.ErrorIs(t, err, ledger.ErrConditionFailed)

	var ids []string
	for o, err := range store.FindOrders(ctx, ledger.OrderQuery{BuyerID: "buyer-1"}) {
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"O2", "O1"}, ids)
}

func TestMongoStore_Profiles(t *testing.T) {
	store := setupTestMongo(t)
	ctx := context.Background()

	p := &models.Profile{ID: "P1", Email: "john@example.com", FullName: "John", Role: models.RoleFarmer}
	require.NoError(t, store.InsertProfile(ctx, p))
	err := store.InsertProfile(ctx, &models.Profile{ID: "P2", Email: "john@example.com"})
	assert.ErrorIs(t, err, ledger.ErrDuplicate)

	loc := "Kisumu"
	updated, err := store.UpdateProfile(ctx, "P1", ledger.ProfilePatch{Location: &loc}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Kisumu", updated.Location)
	assert.Equal(t, "John", updated.FullName)

	got, err := store.GetProfileByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, "P1", got.ID)
}
