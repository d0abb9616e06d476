package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/models"
)

// UserClaims is the request-scoped identity the middleware stores on the
// echo context for handlers to read through CurrentUser.
type UserClaims struct {
	ID   uint
	Role string
}

const userContextKey = "authUser"

func setUser(c echo.Context, claims jwt.MapClaims) error {
	sub, ok := claims["sub"].(float64)
	if !ok {
		return fmt.Errorf("%w: invalid subject claim", apperr.ErrAuth)
	}
	role, ok := claims["role"].(string)
	if !ok {
		return fmt.Errorf("%w: invalid role claim", apperr.ErrAuth)
	}
	c.Set(userContextKey, UserClaims{ID: uint(sub), Role: role})
	return nil
}

func CurrentUser(c echo.Context) (UserClaims, error) {
	u, ok := c.Get(userContextKey).(UserClaims)
	if !ok {
		return UserClaims{}, fmt.Errorf("%w: no session", apperr.ErrAuth)
	}
	return u, nil
}

// authenticate resolves the caller from the accessToken cookie, falling back
// to refresh rotation when the access token has expired.
func (s *Service) authenticate(c echo.Context) error {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		claims, err := s.ParseAccess(cookie.Value)
		if err == nil {
			return setUser(c, claims)
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: invalid token", apperr.ErrAuth)
		}
	}

	rfCookie, err := c.Cookie("refreshToken")
	if err != nil || rfCookie.Value == "" {
		return fmt.Errorf("%w: no session", apperr.ErrAuth)
	}

	newAccess, newRefresh, claims, err := s.Rotate(rfCookie.Value)
	if err != nil {
		return err
	}

	c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(RefreshTTL)))
	return setUser(c, claims)
}

func (s *Service) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := s.authenticate(c); err != nil {
			return apperr.JSON(c, err)
		}
		return next(c)
	}
}

func (s *Service) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := s.authenticate(c); err != nil {
			return apperr.JSON(c, err)
		}
		u, err := CurrentUser(c)
		if err != nil {
			return apperr.JSON(c, err)
		}
		if u.Role != models.RoleAdmin {
			return apperr.JSON(c, fmt.Errorf("%w: admin role required", apperr.ErrForbidden))
		}
		return next(c)
	}
}
