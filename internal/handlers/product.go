package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/util"
)

// ProductHandler serves the public, read-only catalog surface.
type ProductHandler struct {
	DB *gorm.DB
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return apperr.JSON(c, fmt.Errorf("%w: invalid id", apperr.ErrValidation))
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.JSON(c, fmt.Errorf("%w: product %d", apperr.ErrNotFound, id))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 10)
	offset, limit := util.Calculate(page, size)

	category := c.QueryParam("category")
	if category != "" && !models.ValidCategory(category) {
		return apperr.JSON(c, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, category))
	}
	var featured *bool
	if raw := c.QueryParam("featured"); raw != "" {
		want, err := strconv.ParseBool(raw)
		if err != nil {
			return apperr.JSON(c, fmt.Errorf("%w: featured must be a boolean", apperr.ErrValidation))
		}
		featured = &want
	}

	filtered := func() *gorm.DB {
		q := h.DB.Model(&models.Product{})
		if category != "" {
			q = q.Where("category = ?", category)
		}
		if featured != nil {
			q = q.Where("featured = ?", *featured)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := filtered().Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}
