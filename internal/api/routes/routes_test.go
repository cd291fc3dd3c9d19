package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"tilapia-hub-api-server/config"
	"tilapia-hub-api-server/internal/auth"
	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePhotos struct {
	uploaded []string
}

func (f *fakePhotos) UploadListingPhoto(_ context.Context, listingID string, file io.Reader, contentType string) (string, error) {
	b, _ := io.ReadAll(file)
	f.uploaded = append(f.uploaded, string(b))
	return "https://cdn.example.com/listings/" + listingID + "/photo.jpg", nil
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	photos *fakePhotos
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = bcrypt.MinCost

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	store := ledger.NewMemoryStore()
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	identity := auth.NewService(store, auth.NewRedisSessionStore(client), tokens)

	cfg := config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}}}
	photos := &fakePhotos{}
	return &testAPI{t: t, router: SetupRouter(cfg, ledger.New(store), identity, photos), photos: photos}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// register signs up and logs in, returning the bearer token.
func (a *testAPI) register(email string, role models.Role, name, location string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email": email, "password": "secret1", "fullName": name, "role": role,
		"phone": "+254700000000", "location": location,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode[auth.Session](a.t, w).Token
}

func TestOrderFlowOverHTTP(t *testing.T) {
	api := setupAPI(t)
	farmer := api.register("john@example.com", models.RoleFarmer, "John Ochieng", "Kisumu")
	buyer := api.register("amina@example.com", models.RoleBuyer, "Amina Hassan", "Mombasa")

	w := api.do(http.MethodPost, "/api/v1/listings", farmer, gin.H{
		"pricePerKg": 450, "sizeCategory": "500g-1kg", "availableKg": 200, "description": "Pond fresh",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	listing := decode[models.Listing](t, w)

	w = api.do(http.MethodGet, "/api/v1/listings?location=Kisumu&q=ochieng", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	views := decode[[]models.ListingView](t, w)
	require.Len(t, views, 1)
	assert.Equal(t, "John Ochieng", views[0].Farmer.FullName)

	w = api.do(http.MethodPost, "/api/v1/orders", buyer, gin.H{"listingId": listing.ID, "quantityKg": 999})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "only 200kg available")

	w = api.do(http.MethodPost, "/api/v1/orders", buyer, gin.H{"listingId": listing.ID, "quantityKg": 50})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	assert.Equal(t, 22500.0, order.TotalPrice)
	assert.Equal(t, "Kisumu", order.PickupLocation)

	w = api.do(http.MethodGet, "/api/v1/listings/"+listing.ID, buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 150.0, decode[models.ListingView](t, w).AvailableKg)

	w = api.do(http.MethodGet, "/api/v1/orders/"+order.ID, farmer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		models.OrderView
		AllowedActions []models.OrderStatus `json:"allowedActions"`
	}](t, w)
	assert.ElementsMatch(t, []models.OrderStatus{models.OrderConfirmed, models.OrderCancelled}, resp.AllowedActions)
	require.NotNil(t, resp.Buyer)
	assert.Equal(t, "Amina Hassan", resp.Buyer.FullName)

	when := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	w = api.do(http.MethodPut, "/api/v1/orders/"+order.ID+"/pickup-date", buyer, gin.H{"pickupDate": when})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodPut, "/api/v1/orders/"+order.ID+"/pickup-date", farmer, gin.H{"pickupDate": when})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	status := func(token string, s models.OrderStatus) *httptest.ResponseRecorder {
		return api.do(http.MethodPost, "/api/v1/orders/"+order.ID+"/status", token, gin.H{"status": s})
	}
	assert.Equal(t, http.StatusConflict, status(farmer, models.OrderPaid).Code)
	assert.Equal(t, http.StatusForbidden, status(buyer, models.OrderConfirmed).Code)
	require.Equal(t, http.StatusOK, status(farmer, models.OrderConfirmed).Code)
	assert.Equal(t, http.StatusConflict, status(buyer, models.OrderCancelled).Code)
	require.Equal(t, http.StatusOK, status(farmer, models.OrderPickedUp).Code)

	w = status(farmer, models.OrderPaid)
	require.Equal(t, http.StatusOK, w.Code)
	paid := decode[models.Order](t, w)
	assert.True(t, paid.PaymentConfirmed)
	assert.Equal(t, 22500.0, paid.TotalPrice)

	w = api.do(http.MethodGet, "/api/v1/orders", buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]struct {
		models.OrderView
		AllowedActions []models.OrderStatus `json:"allowedActions"`
	}](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, models.OrderPaid, list[0].Status)
	assert.Empty(t, list[0].AllowedActions)
	require.NotNil(t, list[0].Farmer)
	assert.Equal(t, "Kisumu", list[0].Farmer.Location)
}

func TestRoleGatesOverHTTP(t *testing.T) {
	api := setupAPI(t)
	farmer := api.register("john@example.com", models.RoleFarmer, "John Ochieng", "Kisumu")
	other := api.register("mary@example.com", models.RoleFarmer, "Mary Wanjiku", "Nairobi")
	buyer := api.register("amina@example.com", models.RoleBuyer, "Amina Hassan", "Mombasa")

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/listings", "", gin.H{}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/v1/listings", buyer, gin.H{
		"pricePerKg": 450, "sizeCategory": "1kg+", "availableKg": 10,
	}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/v1/listings", farmer, gin.H{
		"pricePerKg": -1, "sizeCategory": "1kg+", "availableKg": 10,
	}).Code)

	w := api.do(http.MethodPost, "/api/v1/listings", farmer, gin.H{"pricePerKg": 450, "sizeCategory": "1kg+", "availableKg": 10})
	require.Equal(t, http.StatusCreated, w.Code)
	listing := decode[models.Listing](t, w)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, "/api/v1/listings/"+listing.ID, other, gin.H{"pricePerKg": 1}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/v1/orders", farmer, gin.H{"listingId": listing.ID, "quantityKg": 1}).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/listings/missing", buyer, nil).Code)

	w = api.do(http.MethodPatch, "/api/v1/listings/"+listing.ID, farmer, gin.H{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/listings/"+listing.ID, buyer, nil).Code)

	w = api.do(http.MethodGet, "/api/v1/my/listings", farmer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Listing](t, w), 1)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/v1/listings/"+listing.ID, farmer, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/v1/listings/"+listing.ID, farmer, nil).Code)
}

func TestProfileAndLogoutOverHTTP(t *testing.T) {
	api := setupAPI(t)
	token := api.register("amina@example.com", models.RoleBuyer, "Amina Hassan", "Mombasa")

	w := api.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email": "AMINA@example.com", "password": "secret1", "fullName": "Again", "role": "buyer",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = api.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "amina@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPatch, "/api/v1/me", token, gin.H{"phone": "+254711111111"})
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(http.MethodPatch, "/api/v1/me", token, gin.H{"location": "Atlantis"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.Profile](t, w)
	assert.Equal(t, "+254711111111", me.Phone)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/me", token, nil).Code)
}

func TestMarketEndpoints(t *testing.T) {
	api := setupAPI(t)

	w := api.do(http.MethodGet, "/api/v1/market/estimate?location=Nairobi&weightKg=10&quality=premium", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	est := decode[struct {
		Total float64 `json:"total"`
	}](t, w)
	assert.Equal(t, 6500.0, est.Total)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/market/estimate?weightKg=900", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/market/estimate?weightKg=abc", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/market/prices", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/tips", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/listings?location=Atlantis", "", nil).Code)

	w = api.do(http.MethodGet, "/api/v1/alerts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	alerts := decode[struct {
		Summary struct {
			ActiveAlerts int `json:"activeAlerts"`
			HighSeverity int `json:"highSeverity"`
		} `json:"summary"`
	}](t, w)
	assert.Equal(t, 4, alerts.Summary.ActiveAlerts)
	assert.Equal(t, 1, alerts.Summary.HighSeverity)
}

func TestUploadListingPhoto(t *testing.T) {
	api := setupAPI(t)
	farmer := api.register("john@example.com", models.RoleFarmer, "John Ochieng", "Kisumu")
	w := api.do(http.MethodPost, "/api/v1/listings", farmer, gin.H{"pricePerKg": 450, "sizeCategory": "1kg+", "availableKg": 10})
	require.Equal(t, http.StatusCreated, w.Code)
	listing := decode[models.Listing](t, w)

	upload := func(contentType string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="fish.jpg"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write([]byte("jpeg-bytes"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listing.ID+"/photo", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+farmer)
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, upload("application/pdf").Code)

	w = upload("image/jpeg")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Listing](t, w)
	assert.Equal(t, "https://cdn.example.com/listings/"+listing.ID+"/photo.jpg", updated.PhotoURL)
	assert.Equal(t, []string{"jpeg-bytes"}, api.photos.uploaded)
}
