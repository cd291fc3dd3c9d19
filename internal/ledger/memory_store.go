package ledger

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"tilapia-hub-api-server/internal/models"
)

// MemoryStore is an in-memory Store. A single mutex serializes every write,
// which gives PlaceOrder and TransitionOrder their atomicity.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]models.Listing
	orders   map[string]models.Order
	profiles map[string]models.Profile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]models.Listing),
		orders:   make(map[string]models.Order),
		profiles: make(map[string]models.Profile),
	}
}

var (
	_ Store        = (*MemoryStore)(nil)
	_ ProfileStore = (*MemoryStore)(nil)
)

// --- listings ---

func (m *MemoryStore) InsertListing(ctx context.Context, l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[l.ID]; ok {
		return ErrDuplicate
	}
	m.listings[l.ID] = *l
	return nil
}

func (m *MemoryStore) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNoDocument
	}
	return &l, nil
}

func (m *MemoryStore) UpdateListing(ctx context.Context, id string, patch ListingPatch, at time.Time) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNoDocument
	}
	if patch.PricePerKg != nil {
		l.PricePerKg = *patch.PricePerKg
	}
	if patch.SizeCategory != nil {
		l.SizeCategory = *patch.SizeCategory
	}
	if patch.AvailableKg != nil {
		l.AvailableKg = *patch.AvailableKg
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.IsActive != nil {
		l.IsActive = *patch.IsActive
	}
	if patch.PhotoURL != nil {
		l.PhotoURL = *patch.PhotoURL
	}
	l.UpdatedAt = at
	m.listings[id] = l
	return &l, nil
}

func (m *MemoryStore) DeleteListing(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[id]; !ok {
		return ErrNoDocument
	}
	delete(m.listings, id)
	return nil
}

func (m *MemoryStore) FindListings(ctx context.Context, q ListingQuery) iter.Seq2[models.Listing, error] {
	return func(yield func(models.Listing, error) bool) {
		m.mu.RLock()
		var out []models.Listing
		for _, l := range m.listings {
			if q.FarmerID != "" && l.FarmerID != q.FarmerID {
				continue
			}
			if q.ActiveOnly && !l.IsActive {
				continue
			}
			out = append(out, l)
		}
		m.mu.RUnlock()

		slices.SortFunc(out, func(a, b models.Listing) int {
			return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
		})
		for _, l := range out {
			if err := ctx.Err(); err != nil {
				yield(models.Listing{}, err)
				return
			}
			if !yield(l, nil) {
				return
			}
		}
	}
}

// --- orders ---

func (m *MemoryStore) PlaceOrder(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[o.ListingID]
	if !ok || !l.IsActive || l.AvailableKg < o.QuantityKg {
		return ErrConditionFailed
	}
	if _, dup := m.orders[o.ID]; dup {
		return ErrDuplicate
	}
	l.AvailableKg -= o.QuantityKg
	l.UpdatedAt = o.CreatedAt
	m.listings[l.ID] = l
	m.orders[o.ID] = *o
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNoDocument
	}
	return &o, nil
}

func (m *MemoryStore) TransitionOrder(ctx context.Context, id string, u OrderUpdate) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNoDocument
	}
	if o.Status != u.From {
		return nil, ErrConditionFailed
	}
	o.Status = u.To
	o.PaymentConfirmed = u.PaymentConfirmed
	o.UpdatedAt = u.At
	m.orders[id] = o

	if u.RestockKg > 0 {
		if l, ok := m.listings[u.ListingID]; ok {
			l.AvailableKg += u.RestockKg
			l.UpdatedAt = u.At
			m.listings[l.ID] = l
		}
	}
	return &o, nil
}

func (m *MemoryStore) SetPickupDate(ctx context.Context, id string, date time.Time, allowed []models.OrderStatus, at time.Time) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNoDocument
	}
	if !slices.Contains(allowed, o.Status) {
		return nil, ErrConditionFailed
	}
	o.PickupDate = &date
	o.UpdatedAt = at
	m.orders[id] = o
	return &o, nil
}

func (m *MemoryStore) FindOrders(ctx context.Context, q OrderQuery) iter.Seq2[models.Order, error] {
	return func(yield func(models.Order, error) bool) {
		m.mu.RLock()
		var out []models.Order
		for _, o := range m.orders {
			if q.BuyerID != "" && o.BuyerID != q.BuyerID {
				continue
			}
			if q.FarmerID != "" && o.FarmerID != q.FarmerID {
				continue
			}
			out = append(out, o)
		}
		m.mu.RUnlock()

		slices.SortFunc(out, func(a, b models.Order) int {
			return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
		})
		for _, o := range out {
			if !yield(o, nil) {
				return
			}
		}
	}
}

// --- profiles ---

func (m *MemoryStore) InsertProfile(ctx context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return ErrDuplicate
		}
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNoDocument
	}
	return &p, nil
}

func (m *MemoryStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, ErrNoDocument
}

func (m *MemoryStore) UpdateProfile(ctx context.Context, id string, patch ProfilePatch, at time.Time) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNoDocument
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	p.UpdatedAt = at
	m.profiles[id] = p
	return &p, nil
}

func newestFirst(ta, tb time.Time, ida, idb string) int {
	if c := tb.Compare(ta); c != 0 {
		return c
	}
	return strings.Compare(idb, ida)
}
