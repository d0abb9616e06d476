package orders

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/service/token"
)

type OrderHandler struct {
	DB *gorm.DB
}

// ListOrders returns the caller's own orders, newest first, with line items
// and their product snapshots.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	user, err := token.CurrentUser(c)
	if err != nil {
		return apperr.JSON(c, err)
	}

	var orders []models.Order
	if err := h.DB.Preload("Items.Product").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, orders)
}
