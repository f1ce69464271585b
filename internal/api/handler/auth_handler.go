package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plumesocial/plume/internal/api/auth"
	"github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/api/dto"
	"github.com/plumesocial/plume/internal/api/model"
)

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register user",
		})
		return
	}

	user := model.User{
		Username:       req.Username,
		HashedPassword: hash,
		CreatedAt:      time.Now(),
	}

	if err := h.storage.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Username already registered",
			})
			return
		}
		h.logger.Error("Failed to create user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register user",
		})
		return
	}

	c.JSON(http.StatusCreated, dto.UserResponse{Username: user.Username})
}

// Login handles POST /api/v1/auth/token
// Exchanges username and password for a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	user, err := h.storage.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Incorrect username or password",
			})
			return
		}
		h.logger.Error("Failed to look up user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to log in",
		})
		return
	}

	if err := auth.CheckPassword(user.HashedPassword, req.Password); err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Incorrect username or password",
		})
		return
	}

	token, err := h.tokens.IssueToken(user.Username)
	if err != nil {
		h.logger.Error("Failed to issue token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to log in",
		})
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me handles GET /api/v1/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, dto.UserResponse{Username: auth.Username(c)})
}
