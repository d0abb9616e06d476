package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/mykafka"
	"github.com/dsolovyev/neonwear/internal/service/token"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	user, err := token.CurrentUser(c)
	if err != nil {
		return apperr.JSON(c, err)
	}

	var items []models.CartItem
	if err := h.DB.Preload("Product").
		Where("user_id = ?", user.ID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, items)
}

// AddToCart increments the line for (user, product) or inserts it. The
// increment is a single UPDATE so concurrent adds cannot lose quantity.
func (h *CartHandler) AddToCart(c echo.Context) error {
	user, err := token.CurrentUser(c)
	if err != nil {
		return apperr.JSON(c, err)
	}

	var req struct {
		ProductID uint `json:"productId"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: bad body", apperr.ErrValidation))
	}
	if req.Quantity <= 0 {
		return apperr.JSON(c, fmt.Errorf("%w: quantity must be positive", apperr.ErrValidation))
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.JSON(c, fmt.Errorf("%w: product %d", apperr.ErrNotFound, req.ProductID))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	res := h.DB.Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", user.ID, req.ProductID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", req.Quantity))
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		item := models.CartItem{
			UserID:    user.ID,
			ProductID: req.ProductID,
			Quantity:  uint(req.Quantity),
		}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    user.ID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// SetQuantity replaces the line quantity. Anything below one removes the
// line instead of storing it.
func (h *CartHandler) SetQuantity(c echo.Context) error {
	user, err := token.CurrentUser(c)
	if err != nil {
		return apperr.JSON(c, err)
	}

	var req struct {
		ProductID uint `json:"productId"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: bad body", apperr.ErrValidation))
	}

	if req.Quantity < 1 {
		return h.removeItem(c, user.ID, req.ProductID)
	}

	res := h.DB.Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", user.ID, req.ProductID).
		UpdateColumn("quantity", req.Quantity)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return apperr.JSON(c, fmt.Errorf("%w: cart item for product %d", apperr.ErrNotFound, req.ProductID))
	}

	h.publish(c, map[string]any{
		"type":      "cart_quantity_set",
		"userID":    user.ID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	user, err := token.CurrentUser(c)
	if err != nil {
		return apperr.JSON(c, err)
	}

	var req struct {
		ProductID uint `json:"productId"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: bad body", apperr.ErrValidation))
	}

	return h.removeItem(c, user.ID, req.ProductID)
}

func (h *CartHandler) removeItem(c echo.Context, userID, productID uint) error {
	res := h.DB.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return apperr.JSON(c, fmt.Errorf("%w: cart item for product %d", apperr.ErrNotFound, productID))
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
