// server/internal/api/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"tilapia-hub-api-server/internal/api/middleware"
	"tilapia-hub-api-server/internal/auth"
	"tilapia-hub-api-server/internal/ledger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Identity *auth.Service
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp đăng ký tài khoản farmer hoặc buyer mới.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req auth.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.Identity.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.Identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.TokenKey)
	if err := h.Identity.SignOut(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Me trả về hồ sơ của người dùng đang đăng nhập.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	profile, err := h.Identity.Profile(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var patch ledger.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.Identity.UpdateProfile(c.Request.Context(), actor, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
