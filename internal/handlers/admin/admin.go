package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/mykafka"
)

// AdminHandler serves the dashboard: catalog CRUD and aggregate stats.
// Role gating happens in the router middleware, not here.
type AdminHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *AdminHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

type Stats struct {
	TotalProducts int64           `json:"totalProducts"`
	TotalOrders   int64           `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalUsers    int64           `json:"totalUsers"`
}

func (h *AdminHandler) GetStats(c echo.Context) error {
	var stats Stats

	if err := h.DB.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	row := h.DB.Model(&models.Order{}).Select("COALESCE(SUM(total), 0)").Row()
	if err := row.Scan(&stats.TotalRevenue); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, stats)
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
	Featured    bool            `json:"featured"`
	InStock     bool            `json:"in_stock"`
}

func (r *productRequest) validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	if r.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", apperr.ErrValidation)
	}
	if !models.ValidCategory(r.Category) {
		return fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, r.Category)
	}
	return nil
}

func (h *AdminHandler) ListProducts(c echo.Context) error {
	var products []models.Product
	if err := h.DB.Order("created_at DESC").Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, products)
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: bad body", apperr.ErrValidation))
	}
	if err := req.validate(); err != nil {
		return apperr.JSON(c, err)
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      pq.StringArray(req.Images),
		Category:    req.Category,
		Featured:    req.Featured,
		InStock:     req.InStock,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	return c.JSON(http.StatusCreated, prod)
}

func (h *AdminHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return apperr.JSON(c, fmt.Errorf("%w: invalid id", apperr.ErrValidation))
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: bad body", apperr.ErrValidation))
	}
	if err := req.validate(); err != nil {
		return apperr.JSON(c, err)
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.JSON(c, fmt.Errorf("%w: product %d", apperr.ErrNotFound, id))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	prod.Name = req.Name
	prod.Description = req.Description
	prod.Price = req.Price
	prod.Images = pq.StringArray(req.Images)
	prod.Category = req.Category
	prod.Featured = req.Featured
	prod.InStock = req.InStock

	if err := h.DB.Save(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	return c.JSON(http.StatusOK, prod)
}

func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return apperr.JSON(c, fmt.Errorf("%w: invalid id", apperr.ErrValidation))
	}

	res := h.DB.Delete(&models.Product{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return apperr.JSON(c, fmt.Errorf("%w: product %d", apperr.ErrNotFound, id))
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return c.NoContent(http.StatusNoContent)
}
