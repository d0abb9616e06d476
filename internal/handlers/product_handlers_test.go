package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/testutil"
)

type productPage struct {
	Data []models.Product `json:"data"`
	Meta struct {
		Page       int   `json:"page"`
		Size       int   `json:"size"`
		Total      int64 `json:"total"`
		TotalPages int64 `json:"total_pages"`
		HasPrev    bool  `json:"has_prev"`
		HasNext    bool  `json:"has_next"`
	} `json:"meta"`
}

func TestGetProducts(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateProduct("Quantum Hoodie", "189.99", "tops")
	env.CreateProduct("Cyber Pants", "159.99", "bottoms")
	env.CreateProduct("Nano-T Shirt", "49.99", "tops")

	rec := env.Do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page productPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 3)
	require.Equal(t, int64(3), page.Meta.Total)
	require.False(t, page.Meta.HasNext)
}

func TestGetProductsCategoryFilter(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateProduct("Quantum Hoodie", "189.99", "tops")
	env.CreateProduct("Cyber Pants", "159.99", "bottoms")

	rec := env.Do(http.MethodGet, "/api/products?category=tops", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page productPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	require.Equal(t, "Quantum Hoodie", page.Data[0].Name)

	rec = env.Do(http.MethodGet, "/api/products?category=hats", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProductsPagination(t *testing.T) {
	env := testutil.NewEnv(t)
	for i := 0; i < 5; i++ {
		env.CreateProduct(fmt.Sprintf("Item %d", i), "10.00", "tops")
	}

	rec := env.Do(http.MethodGet, "/api/products?page=2&size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page productPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 2)
	require.Equal(t, int64(3), page.Meta.TotalPages)
	require.True(t, page.Meta.HasPrev)
	require.True(t, page.Meta.HasNext)
}

func TestGetProduct(t *testing.T) {
	env := testutil.NewEnv(t)
	prod := env.CreateProduct("Holo Sneakers", "229.99", "footwear")

	rec := env.Do(http.MethodGet, fmt.Sprintf("/api/products/%d", prod.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, prod.ID, got.ID)
	require.True(t, got.Price.Equal(prod.Price))
}

func TestGetProductNotFound(t *testing.T) {
	env := testutil.NewEnv(t)

	rec := env.Do(http.MethodGet, "/api/products/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
