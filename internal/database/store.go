// server/internal/database/store.go
package database

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"time"

	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ListingsCollection = "listings"
	OrdersCollection   = "orders"
	ProfilesCollection = "profiles"
)

// MongoStore persists listings, orders and profiles in MongoDB.
//
// With UseTransactions set, the stock decrement and the order insert run in
// one multi-document transaction (replica set required). Otherwise the
// decrement is a single conditional $inc and a failed insert is compensated.
type MongoStore struct {
	DB              *mongo.Database
	UseTransactions bool
}

func NewMongoStore(db *mongo.Database, useTransactions bool) *MongoStore {
	return &MongoStore{DB: db, UseTransactions: useTransactions}
}

var (
	_ ledger.Store        = (*MongoStore)(nil)
	_ ledger.ProfileStore = (*MongoStore)(nil)
)

func (s *MongoStore) listings() *mongo.Collection { return s.DB.Collection(ListingsCollection) }
func (s *MongoStore) orders() *mongo.Collection   { return s.DB.Collection(OrdersCollection) }
func (s *MongoStore) profiles() *mongo.Collection { return s.DB.Collection(ProfilesCollection) }

// EnsureIndexes creates the indexes the queries below rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	newestFirst := bson.E{Key: "createdAt", Value: -1}

	if _, err := s.listings().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isActive", Value: 1}, newestFirst}},
		{Keys: bson.D{{Key: "farmerId", Value: 1}, newestFirst}},
	}); err != nil {
		return fmt.Errorf("listings indexes: %w", err)
	}
	if _, err := s.orders().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyerId", Value: 1}, newestFirst}},
		{Keys: bson.D{{Key: "farmerId", Value: 1}, newestFirst}},
		{Keys: bson.D{{Key: "listingId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("orders indexes: %w", err)
	}
	if _, err := s.profiles().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("profiles indexes: %w", err)
	}
	return nil
}

// translate maps driver errors onto the ledger's store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ledger.ErrNoDocument
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ledger.ErrDuplicate, err)
	default:
		return err
	}
}

var (
	sortNewestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	returnAfter     = options.FindOneAndUpdate().SetReturnDocument(options.After)
)

// inTransaction runs fn inside a transaction when enabled, directly otherwise.
func (s *MongoStore) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.UseTransactions {
		return fn(ctx)
	}
	session, err := s.DB.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// --- listings ---

func (s *MongoStore) InsertListing(ctx context.Context, l *models.Listing) error {
	_, err := s.listings().InsertOne(ctx, l)
	return translate(err)
}

func (s *MongoStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if err := s.listings().FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *MongoStore) UpdateListing(ctx context.Context, id string, patch ledger.ListingPatch, at time.Time) (*models.Listing, error) {
	set := bson.M{"updatedAt": at}
	if patch.PricePerKg != nil {
		set["pricePerKg"] = *patch.PricePerKg
	}
	if patch.SizeCategory != nil {
		set["sizeCategory"] = *patch.SizeCategory
	}
	if patch.AvailableKg != nil {
		set["availableKg"] = *patch.AvailableKg
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}
	if patch.PhotoURL != nil {
		set["photoURL"] = *patch.PhotoURL
	}

	var l models.Listing
	err := s.listings().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&l)
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *MongoStore) DeleteListing(ctx context.Context, id string) error {
	res, err := s.listings().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ledger.ErrNoDocument
	}
	return nil
}

func (s *MongoStore) FindListings(ctx context.Context, q ledger.ListingQuery) iter.Seq2[models.Listing, error] {
	filter := bson.M{}
	if q.FarmerID != "" {
		filter["farmerId"] = q.FarmerID
	}
	if q.ActiveOnly {
		filter["isActive"] = true
	}
	return find[models.Listing](ctx, s.listings(), filter)
}

// find streams decoded documents newest first. The query runs when ranged.
func find[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		cursor, err := coll.Find(ctx, filter, options.Find().SetSort(sortNewestFirst))
		if err != nil {
			yield(zero, err)
			return
		}
		defer cursor.Close(context.Background())

		for cursor.Next(ctx) {
			var doc T
			if err := cursor.Decode(&doc); err != nil {
				yield(zero, err)
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// --- orders ---

// PlaceOrder decrements the listing only while it is active and still holds
// enough stock, then inserts the order.
func (s *MongoStore) PlaceOrder(ctx context.Context, o *models.Order) error {
	reserveFilter := bson.M{
		"_id":         o.ListingID,
		"isActive":    true,
		"availableKg": bson.M{"$gte": o.QuantityKg},
	}
	reserve := bson.M{
		"$inc": bson.M{"availableKg": -o.QuantityKg},
		"$set": bson.M{"updatedAt": o.CreatedAt},
	}

	return s.inTransaction(ctx, func(ctx context.Context) error {
		res, err := s.listings().UpdateOne(ctx, reserveFilter, reserve)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if res.MatchedCount == 0 {
			// Ai nhanh hơn thì được, người còn lại nhận lỗi.
			return ledger.ErrConditionFailed
		}

		if _, err := s.orders().InsertOne(ctx, o); err != nil {
			if !s.UseTransactions {
				s.restock(context.Background(), o.ListingID, o.QuantityKg, o.CreatedAt, "order "+o.ID+" insert failed")
			}
			return fmt.Errorf("insert order: %w", translate(err))
		}
		return nil
	})
}

// restock gives quantity back to a listing outside any transaction. Failure
// leaves the listing short and is logged for manual repair.
func (s *MongoStore) restock(ctx context.Context, listingID string, qty float64, at time.Time, reason string) {
	_, err := s.listings().UpdateOne(ctx,
		bson.M{"_id": listingID},
		bson.M{"$inc": bson.M{"availableKg": qty}, "$set": bson.M{"updatedAt": at}},
	)
	if err != nil {
		log.Printf("CRITICAL: %s and %gkg could not be returned to listing %s: %v", reason, qty, listingID, err)
		return
	}
	log.Printf("Rolled back %gkg to listing %s (%s)", qty, listingID, reason)
}

func (s *MongoStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.orders().FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// TransitionOrder applies u only while the order is still in u.From.
func (s *MongoStore) TransitionOrder(ctx context.Context, id string, u ledger.OrderUpdate) (*models.Order, error) {
	var updated models.Order
	err := s.inTransaction(ctx, func(ctx context.Context) error {
		filter := bson.M{"_id": id, "status": u.From}
		update := bson.M{"$set": bson.M{
			"status":           u.To,
			"paymentConfirmed": u.PaymentConfirmed,
			"updatedAt":        u.At,
		}}
		err := s.orders().FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return s.missingOrStale(ctx, id)
		}
		if err != nil {
			return err
		}

		if u.RestockKg <= 0 {
			return nil
		}
		// Listing đã bị xoá thì bỏ qua (MatchedCount == 0).
		_, err = s.listings().UpdateOne(ctx,
			bson.M{"_id": u.ListingID},
			bson.M{"$inc": bson.M{"availableKg": u.RestockKg}, "$set": bson.M{"updatedAt": u.At}},
		)
		if err != nil && !s.UseTransactions {
			log.Printf("CRITICAL: order %s moved to %s but restock failed. Rolling back...", id, u.To)
			_, rbErr := s.orders().UpdateOne(context.Background(),
				bson.M{"_id": id, "status": u.To},
				bson.M{"$set": bson.M{"status": u.From, "paymentConfirmed": false}},
			)
			if rbErr != nil {
				log.Printf("CRITICAL: rollback of order %s failed: %v", id, rbErr)
			}
		}
		if err != nil {
			return fmt.Errorf("restock listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// missingOrStale tells an absent order apart from one whose status moved on.
func (s *MongoStore) missingOrStale(ctx context.Context, id string) error {
	n, err := s.orders().CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNoDocument
	}
	return ledger.ErrConditionFailed
}

func (s *MongoStore) SetPickupDate(ctx context.Context, id string, date time.Time, allowed []models.OrderStatus, at time.Time) (*models.Order, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": allowed}}
	update := bson.M{"$set": bson.M{"pickupDate": date, "updatedAt": at}}

	var o models.Order
	err := s.orders().FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missingOrStale(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *MongoStore) FindOrders(ctx context.Context, q ledger.OrderQuery) iter.Seq2[models.Order, error] {
	filter := bson.M{}
	if q.BuyerID != "" {
		filter["buyerId"] = q.BuyerID
	}
	if q.FarmerID != "" {
		filter["farmerId"] = q.FarmerID
	}
	return find[models.Order](ctx, s.orders(), filter)
}

// --- profiles ---

func (s *MongoStore) InsertProfile(ctx context.Context, p *models.Profile) error {
	_, err := s.profiles().InsertOne(ctx, p)
	return translate(err)
}

func (s *MongoStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.profiles().FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// GetProfileByEmail expects email already lower-cased.
func (s *MongoStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.profiles().FindOne(ctx, bson.M{"email": email}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id string, patch ledger.ProfilePatch, at time.Time) (*models.Profile, error) {
	set := bson.M{"updatedAt": at}
	if patch.FullName != nil {
		set["fullName"] = *patch.FullName
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}

	var p models.Profile
	err := s.profiles().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&p)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
