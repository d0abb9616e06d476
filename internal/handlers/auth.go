package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/hash"
	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/mykafka"
	"github.com/dsolovyev/neonwear/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: bad body", apperr.ErrValidation))
	}
	if req.Username == "" || req.Password == "" {
		return apperr.JSON(c, fmt.Errorf("%w: username and password required", apperr.ErrValidation))
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return apperr.JSON(c, fmt.Errorf("%w: user already exists", apperr.ErrValidation))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: bad body", apperr.ErrValidation))
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: invalid credentials", apperr.ErrAuth))
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return apperr.JSON(c, fmt.Errorf("%w: invalid credentials", apperr.ErrAuth))
	}

	accessToken, err := h.Tokens.SignAccessToken(user.ID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}
	refreshToken, err := h.Tokens.SignRefreshToken(user.ID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create refresh token")
	}
	if err := h.Tokens.SaveRefreshToken(refreshToken, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.SetCookie(token.CreateCookie("accessToken", accessToken, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refreshToken, "/", time.Now().Add(token.RefreshTTL)))

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"is_admin":      user.Role == models.RoleAdmin,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: no session", apperr.ErrAuth))
	}

	if err := h.Tokens.Revoke(refreshCookie.Value); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
