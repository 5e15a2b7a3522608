package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caelexhq/caelex-backend/internal/services"
)

var errInvalidCredentials = errors.New("invalid email or password")

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	accessToken, user, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Same envelope for bad email and bad password.
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", errInvalidCredentials)
		return
	}
	RespondOK(c, gin.H{
		"access_token": accessToken,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"user":         user,
	})
}
