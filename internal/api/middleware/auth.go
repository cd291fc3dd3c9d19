// server/internal/api/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"tilapia-hub-api-server/internal/auth"
	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	ActorKey = "actor"
	TokenKey = "token"
	RoleKey  = "user_role"
)

// SessionResolver turns a bearer token into the calling actor.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (ledger.Actor, error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if authHeader == "" || tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// Authenticate là middleware xác thực token JWT.
// Nó kiểm tra token với identity provider và đưa actor vào context.
func Authenticate(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		tokenString, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		actor, err := resolver.Resolve(c.Request.Context(), tokenString)
		if errors.Is(err, auth.ErrUnauthenticated) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if err != nil {
			log.Printf("Session lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify session"})
			return
		}

		// Lưu thông tin user vào context của request
		c.Set(ActorKey, actor)
		c.Set(TokenKey, tokenString)
		c.Set(RoleKey, actor.Role)

		c.Next()
	}
}

// Authorize là một middleware factory để kiểm tra vai trò của người dùng.
func Authorize(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := ActorFrom(c)
		if !exists {
			// Lỗi này không nên xảy ra nếu Authenticate được gọi trước
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User role not found in context"})
			return
		}

		for _, role := range allowedRoles {
			if role == actor.Role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}

// ActorFrom returns the actor stored by Authenticate.
func ActorFrom(c *gin.Context) (ledger.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return ledger.Actor{}, false
	}
	actor, ok := v.(ledger.Actor)
	return actor, ok
}
