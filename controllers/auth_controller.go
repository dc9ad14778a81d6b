package controllers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SunnyAureliusRichard/meditation-cogs/config"
	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

// AuthController exchanges the configured admin secret for a short-lived JWT.
type AuthController struct{}

// NewAuthController creates a new controller instance.
func NewAuthController() *AuthController { return &AuthController{} }

type tokenRequest struct {
	Secret string `json:"secret" binding:"required"`
}

// Token issues an admin JWT when the shared secret matches.
func (a *AuthController) Token(ctx *gin.Context) {
	var req tokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "secret is required")
		return
	}

	cfg := config.Get()
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(cfg.AdminSecret)) != 1 {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid admin secret")
		return
	}

	token, err := utils.GenerateToken("admin", 24*time.Hour)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token})
}
