package token

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Service) SignAccessToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.JWTSecret)
}

func (s *Service) SignRefreshToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(RefreshTTL).Unix(),
		"typ":  "refresh",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.RefreshSecret)
}

func (s *Service) SaveRefreshToken(raw string, userID uint) error {
	row := models.RefreshToken{
		Token:     raw,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTTL).Unix(),
		Revoked:   false,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *Service) Revoke(raw string) error {
	return s.DB.Model(&models.RefreshToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error
}

// ParseAccess validates an access token string and returns its claims.
func (s *Service) ParseAccess(raw string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ValidateRefresh checks the token signature, the refresh marker and the
// stored row (revocation, expiry).
func (s *Service) ValidateRefresh(raw string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.RefreshSecret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: invalid refresh token", apperr.ErrAuth)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: cannot parse claims", apperr.ErrAuth)
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, fmt.Errorf("%w: not a refresh token", apperr.ErrAuth)
	}

	var stored models.RefreshToken
	if err := s.DB.Where("token = ?", raw).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: refresh token not found", apperr.ErrAuth)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, fmt.Errorf("%w: refresh token revoked", apperr.ErrAuth)
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, fmt.Errorf("%w: refresh token expired", apperr.ErrAuth)
	}

	return claims, nil
}

// Rotate exchanges a valid refresh token for a fresh access/refresh pair.
// The old row stays valid until it expires; the new one is persisted.
func (s *Service) Rotate(raw string) (string, string, jwt.MapClaims, error) {
	claims, err := s.ValidateRefresh(raw)
	if err != nil {
		return "", "", nil, err
	}

	userID := uint(claims["sub"].(float64))
	role, _ := claims["role"].(string)

	newAccess, err := s.SignAccessToken(userID, role)
	if err != nil {
		return "", "", nil, err
	}
	newRefresh, err := s.SignRefreshToken(userID, role)
	if err != nil {
		return "", "", nil, err
	}
	if err := s.SaveRefreshToken(newRefresh, userID); err != nil {
		return "", "", nil, err
	}

	return newAccess, newRefresh, claims, nil
}
