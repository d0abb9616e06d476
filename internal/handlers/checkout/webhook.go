package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/payment"
)

// HandleWebhook resolves pending orders from signed processor events. The
// signature is checked against the raw body before anything is decoded, and
// a bad signature mutates nothing.
func (h *CheckoutHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: unreadable body", apperr.ErrValidation))
	}

	event, err := payment.ConstructEvent(body, c.Request().Header.Get(payment.SignatureHeader), h.WebhookSecret)
	if err != nil {
		return apperr.JSON(c, err)
	}

	switch event.Type {
	case payment.EventSessionCompleted:
		if err := h.completeOrder(c, event.Data.Object.ID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	case payment.EventSessionExpired:
		if err := h.DB.Model(&models.Order{}).
			Where("payment_session_id = ? AND status = ?", event.Data.Object.ID, models.OrderStatusPending).
			Update("status", models.OrderStatusFailed).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	default:
		c.Logger().Warnf("unhandled webhook event type: %s", event.Type)
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (h *CheckoutHandler) completeOrder(c echo.Context, sessionID string) error {
	var order models.Order
	if err := h.DB.Where("payment_session_id = ?", sessionID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Session we never opened, or a replay after cleanup. Ack it.
			return nil
		}
		return err
	}
	if order.Status == models.OrderStatusCompleted {
		return nil
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("status", models.OrderStatusCompleted).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", order.UserID).Delete(&models.CartItem{}).Error
	})
	if txErr != nil {
		return txErr
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(order.UserID), map[string]any{
		"type":    "order_completed",
		"userID":  order.UserID,
		"orderID": order.ID,
		"total":   order.Total,
	}); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
	return nil
}
