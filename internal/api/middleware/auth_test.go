package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tilapia-hub-api-server/internal/auth"
	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubResolver map[string]ledger.Actor

func (s stubResolver) Resolve(_ context.Context, token string) (ledger.Actor, error) {
	if token == "broken" {
		return ledger.Actor{}, errors.New("redis down")
	}
	a, ok := s[token]
	if !ok {
		return ledger.Actor{}, auth.ErrUnauthenticated
	}
	return a, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	resolver := stubResolver{
		"farmer-token": {ID: "f1", Role: models.RoleFarmer},
		"buyer-token":  {ID: "b1", Role: models.RoleBuyer},
	}
	r := gin.New()
	r.GET("/farm", Authenticate(resolver), Authorize(models.RoleFarmer), func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.String(http.StatusOK, actor.ID)
	})
	return r
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
		{"resolver failure", "Bearer broken", http.StatusInternalServerError, ""},
		{"wrong role", "Bearer buyer-token", http.StatusForbidden, ""},
		{"farmer", "Bearer farmer-token", http.StatusOK, "f1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/farm", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}
