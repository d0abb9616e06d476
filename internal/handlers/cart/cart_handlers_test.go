package cart_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/testutil"
)

func TestGetCartIncludesProduct(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("shopper", models.RoleUser)
	prod := env.CreateProduct("Quantum Hoodie", "189.99", "tops")

	require.NoError(t, env.DB.Create(&models.CartItem{UserID: user.ID, ProductID: prod.ID, Quantity: 2}).Error)

	rec := env.Do(http.MethodGet, "/api/cart", nil, env.Login(user))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.Equal(t, prod.ID, items[0].ProductID)
	require.Equal(t, uint(2), items[0].Quantity)
	require.Equal(t, "Quantum Hoodie", items[0].Product.Name)
}

func TestCartRequiresLogin(t *testing.T) {
	env := testutil.NewEnv(t)

	rec := env.Do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddToCartAccumulates(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("shopper", models.RoleUser)
	prod := env.CreateProduct("Nano-T Shirt", "49.99", "tops")
	ck := env.Login(user)

	body := map[string]any{"productId": prod.ID, "quantity": 2}
	rec := env.Do(http.MethodPost, "/api/cart", body, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	body["quantity"] = 3
	rec = env.Do(http.MethodPost, "/api/cart", body, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.CartItem
	require.NoError(t, env.DB.Where("user_id = ? AND product_id = ?", user.ID, prod.ID).First(&item).Error)
	require.Equal(t, uint(5), item.Quantity)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("shopper", models.RoleUser)

	rec := env.Do(http.MethodPost, "/api/cart", map[string]any{"productId": 999, "quantity": 1}, env.Login(user))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddToCartRejectsNonPositiveQuantity(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("shopper", models.RoleUser)
	prod := env.CreateProduct("Data Gloves", "79.99", "accessories")

	rec := env.Do(http.MethodPost, "/api/cart", map[string]any{"productId": prod.ID, "quantity": 0}, env.Login(user))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.Do(http.MethodPost, "/api/cart", map[string]any{"productId": prod.ID, "quantity": -3}, env.Login(user))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetQuantity(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("shopper", models.RoleUser)
	prod := env.CreateProduct("Cyber Pants", "159.99", "bottoms")
	ck := env.Login(user)

	require.NoError(t, env.DB.Create(&models.CartItem{UserID: user.ID, ProductID: prod.ID, Quantity: 1}).Error)

	rec := env.Do(http.MethodPut, "/api/cart", map[string]any{"productId": prod.ID, "quantity": 4}, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.CartItem
	require.NoError(t, env.DB.Where("user_id = ? AND product_id = ?", user.ID, prod.ID).First(&item).Error)
	require.Equal(t, uint(4), item.Quantity)
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("shopper", models.RoleUser)
	prod := env.CreateProduct("Holo Sneakers", "229.99", "footwear")
	ck := env.Login(user)

	require.NoError(t, env.DB.Create(&models.CartItem{UserID: user.ID, ProductID: prod.ID, Quantity: 3}).Error)

	rec := env.Do(http.MethodPut, "/api/cart", map[string]any{"productId": prod.ID, "quantity": 0}, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	env.DB.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&count)
	require.Zero(t, count)
}

func TestRemoveFromCart(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("shopper", models.RoleUser)
	prod := env.CreateProduct("Neo-Tech Jacket", "299.99", "outerwear")
	ck := env.Login(user)

	require.NoError(t, env.DB.Create(&models.CartItem{UserID: user.ID, ProductID: prod.ID, Quantity: 1}).Error)

	rec := env.Do(http.MethodDelete, "/api/cart", map[string]any{"productId": prod.ID}, ck)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.Do(http.MethodGet, "/api/cart", nil, ck)
	var items []models.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Empty(t, items)

	// second removal reports not found but leaves nothing broken
	rec = env.Do(http.MethodDelete, "/api/cart", map[string]any{"productId": prod.ID}, ck)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveDoesNotTouchOtherUsers(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.CreateUser("alice", models.RoleUser)
	bob := env.CreateUser("bob", models.RoleUser)
	prod := env.CreateProduct("Data Gloves", "79.99", "accessories")

	require.NoError(t, env.DB.Create(&models.CartItem{UserID: alice.ID, ProductID: prod.ID, Quantity: 1}).Error)
	require.NoError(t, env.DB.Create(&models.CartItem{UserID: bob.ID, ProductID: prod.ID, Quantity: 5}).Error)

	rec := env.Do(http.MethodDelete, "/api/cart", map[string]any{"productId": prod.ID}, env.Login(alice))
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.CartItem
	require.NoError(t, env.DB.Where("user_id = ?", bob.ID).First(&item).Error)
	require.Equal(t, uint(5), item.Quantity)
}
