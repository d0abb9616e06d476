// Package checkout converts a validated list of line items into a persisted
// order, either completing immediately (demo mode) or deferring to the
// external payment gateway's webhook.
package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/apperr"
	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/mykafka"
	"github.com/dsolovyev/neonwear/internal/payment"
	"github.com/dsolovyev/neonwear/internal/service/token"
)

// CheckoutHandler runs in demo mode when Provider is nil: orders commit as
// completed and the cart clears in the same transaction. With a Provider the
// order stays pending under the processor's session id until HandleWebhook
// resolves it.
type CheckoutHandler struct {
	DB            *gorm.DB
	Producer      *mykafka.Producer
	Provider      payment.Provider
	WebhookSecret []byte
}

type checkoutItem struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

func (h *CheckoutHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

// priceItems re-fetches the referenced products and snapshots their current
// prices. Client-supplied prices are never trusted, and a missing product
// fails the whole checkout.
func (h *CheckoutHandler) priceItems(items []checkoutItem) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	var products []models.Product
	if err := h.DB.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: product %d", apperr.ErrNotFound, it.ProductID)
		}
		line := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  uint(it.Quantity),
			Price:     p.Price,
		})
	}
	return orderItems, total, nil
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	user, err := token.CurrentUser(c)
	if err != nil {
		return apperr.JSON(c, err)
	}

	var req struct {
		Items []checkoutItem `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.JSON(c, fmt.Errorf("%w: bad body", apperr.ErrValidation))
	}
	if len(req.Items) == 0 {
		return apperr.JSON(c, fmt.Errorf("%w: items required", apperr.ErrValidation))
	}
	for _, it := range req.Items {
		if it.ProductID == 0 {
			return apperr.JSON(c, fmt.Errorf("%w: productId required", apperr.ErrValidation))
		}
		if it.Quantity <= 0 {
			return apperr.JSON(c, fmt.Errorf("%w: quantity must be positive", apperr.ErrValidation))
		}
	}

	orderItems, total, err := h.priceItems(req.Items)
	if err != nil {
		return apperr.JSON(c, err)
	}

	if h.Provider != nil {
		return h.gatewayCheckout(c, user, orderItems, total)
	}
	return h.demoCheckout(c, user, orderItems, total)
}

func (h *CheckoutHandler) demoCheckout(c echo.Context, user token.UserClaims, items []models.OrderItem, total decimal.Decimal) error {
	order := models.Order{
		UserID: user.ID,
		Total:  total,
		Status: models.OrderStatusCompleted,
		Items:  items,
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_completed",
		"userID":  user.ID,
		"orderID": order.ID,
		"total":   order.Total,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"orderId": order.ID,
		"order": echo.Map{
			"id":     order.ID,
			"total":  order.Total,
			"status": order.Status,
			"items":  order.Items,
		},
	})
}

// gatewayCheckout creates the hosted session first. If the processor call
// fails nothing is persisted; if the order insert fails the session is
// simply never confirmed and expires at the processor.
func (h *CheckoutHandler) gatewayCheckout(c echo.Context, user token.UserClaims, items []models.OrderItem, total decimal.Decimal) error {
	session, err := h.Provider.CreateSession(c.Request().Context(), payment.SessionRequest{
		Amount:   total,
		Currency: "usd",
		UserID:   user.ID,
	})
	if err != nil {
		return apperr.JSON(c, err)
	}

	order := models.Order{
		UserID:           user.ID,
		Total:            total,
		Status:           models.OrderStatusPending,
		PaymentSessionID: session.ID,
		Items:            items,
	}
	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_pending",
		"userID":  user.ID,
		"orderID": order.ID,
		"total":   order.Total,
	})

	return c.JSON(http.StatusOK, echo.Map{"sessionId": session.ID})
}
