package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/config"
	"github.com/hjmsindangan/stockbook/internal/server/auth"
)

// AuthHandler exposes the login gate.
type AuthHandler struct {
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewAuthHandler constructs the login handler.
func NewAuthHandler(cfg config.AuthConfig, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{cfg: cfg, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks the credentials and issues a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, err := auth.Login(h.cfg, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			h.logger.Warn("failed login attempt", zap.String("username", req.Username))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		h.logger.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
