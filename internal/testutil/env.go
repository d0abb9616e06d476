// Package testutil wires the full router against an in-memory sqlite
// database so handler tests run without Postgres, Kafka or Elasticsearch.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/config"
	"github.com/dsolovyev/neonwear/internal/handlers"
	"github.com/dsolovyev/neonwear/internal/handlers/admin"
	"github.com/dsolovyev/neonwear/internal/handlers/cart"
	"github.com/dsolovyev/neonwear/internal/handlers/checkout"
	"github.com/dsolovyev/neonwear/internal/handlers/orders"
	"github.com/dsolovyev/neonwear/internal/hash"
	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/service/token"
	httpserver "github.com/dsolovyev/neonwear/internal/transport/http"
)

const WebhookSecret = "test-webhook-secret"

type Env struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.Service
}

type Option func(*httpserver.Deps)

// WithDeps lets a test adjust handler wiring (e.g. install a payment
// provider) before the routes are registered.
func WithDeps(f func(*httpserver.Deps)) Option { return f }

func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	deps := &httpserver.Deps{
		Tokens:         tokens,
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens},
		ProductHandler: &handlers.ProductHandler{DB: db},
		CartHandler:    &cart.CartHandler{DB: db},
		CheckoutHandler: &checkout.CheckoutHandler{
			DB:            db,
			WebhookSecret: []byte(WebhookSecret),
		},
		OrderHandler: &orders.OrderHandler{DB: db},
		AdminHandler: &admin.AdminHandler{DB: db},
	}
	for _, opt := range opts {
		opt(deps)
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	httpserver.Register(e, deps)

	return &Env{T: t, E: e, DB: db, Tokens: tokens}
}

// Do runs a request through the full router, middleware included.
func (env *Env) Do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *Env) CreateUser(username, role string) models.User {
	env.T.Helper()

	pwHash, err := hash.HashPassword("password")
	require.NoError(env.T, err)

	user := models.User{Username: username, PasswordHash: pwHash, Role: role}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

// Login mints an access-token cookie for the user, bypassing the login
// endpoint.
func (env *Env) Login(user models.User) *http.Cookie {
	env.T.Helper()

	access, err := env.Tokens.SignAccessToken(user.ID, user.Role)
	require.NoError(env.T, err)
	return &http.Cookie{Name: "accessToken", Value: access, Path: "/", Expires: time.Now().Add(token.AccessTTL)}
}

func (env *Env) CreateProduct(name, price, category string) models.Product {
	env.T.Helper()

	prod := models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		InStock:     true,
	}
	require.NoError(env.T, env.DB.Create(&prod).Error)
	return prod
}
