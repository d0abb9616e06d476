package checkout_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/dsolovyev/neonwear/internal/models"
	"github.com/dsolovyev/neonwear/internal/payment"
	"github.com/dsolovyev/neonwear/internal/testutil"
)

func webhookBody(t *testing.T, eventType, sessionID string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": eventType,
		"data": map[string]any{"object": map[string]any{"id": sessionID}},
	})
	require.NoError(t, err)
	return body
}

func postWebhook(env *testutil.Env, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(payment.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func pendingOrder(t *testing.T, env *testutil.Env, userID uint, sessionID string) models.Order {
	t.Helper()
	order := models.Order{
		UserID:           userID,
		Status:           models.OrderStatusPending,
		PaymentSessionID: sessionID,
	}
	require.NoError(t, env.DB.Create(&order).Error)
	return order
}

func TestWebhookCompletesOrder(t *testing.T) {
	env := gatewayEnv(t, &fakeProvider{session: &payment.Session{ID: "cs_1"}})
	user := env.CreateUser("shopper", models.RoleUser)
	prod := env.CreateProduct("Data Gloves", "79.99", "accessories")
	order := pendingOrder(t, env, user.ID, "cs_1")

	require.NoError(t, env.DB.Create(&models.CartItem{UserID: user.ID, ProductID: prod.ID, Quantity: 1}).Error)

	body := webhookBody(t, payment.EventSessionCompleted, "cs_1")
	rec := postWebhook(env, body, payment.Sign(body, []byte(testutil.WebhookSecret), time.Now()))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Received bool `json:"received"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Received)

	var got models.Order
	require.NoError(t, env.DB.First(&got, order.ID).Error)
	require.Equal(t, models.OrderStatusCompleted, got.Status)

	var count int64
	env.DB.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&count)
	require.Zero(t, count)
}

func TestWebhookExpiredSessionFailsOrder(t *testing.T) {
	env := gatewayEnv(t, &fakeProvider{session: &payment.Session{ID: "cs_2"}})
	user := env.CreateUser("shopper", models.RoleUser)
	order := pendingOrder(t, env, user.ID, "cs_2")

	body := webhookBody(t, payment.EventSessionExpired, "cs_2")
	rec := postWebhook(env, body, payment.Sign(body, []byte(testutil.WebhookSecret), time.Now()))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, env.DB.First(&got, order.ID).Error)
	require.Equal(t, models.OrderStatusFailed, got.Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := gatewayEnv(t, &fakeProvider{session: &payment.Session{ID: "cs_3"}})
	user := env.CreateUser("shopper", models.RoleUser)
	order := pendingOrder(t, env, user.ID, "cs_3")

	body := webhookBody(t, payment.EventSessionCompleted, "cs_3")

	cases := map[string]string{
		"missing header":  "",
		"garbage header":  "not-a-signature",
		"wrong secret":    payment.Sign(body, []byte("wrong-secret"), time.Now()),
		"stale timestamp": payment.Sign(body, []byte(testutil.WebhookSecret), time.Now().Add(-time.Hour)),
	}
	for name, sig := range cases {
		rec := postWebhook(env, body, sig)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}

	// nothing transitioned
	var got models.Order
	require.NoError(t, env.DB.First(&got, order.ID).Error)
	require.Equal(t, models.OrderStatusPending, got.Status)
}

func TestWebhookTamperedPayloadRejected(t *testing.T) {
	env := gatewayEnv(t, &fakeProvider{session: &payment.Session{ID: "cs_4"}})
	user := env.CreateUser("shopper", models.RoleUser)
	pendingOrder(t, env, user.ID, "cs_4")

	body := webhookBody(t, payment.EventSessionCompleted, "cs_4")
	sig := payment.Sign(body, []byte(testutil.WebhookSecret), time.Now())
	tampered := bytes.Replace(body, []byte("cs_4"), []byte("cs_5"), 1)

	rec := postWebhook(env, tampered, sig)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookUnknownSessionAcked(t *testing.T) {
	env := gatewayEnv(t, &fakeProvider{session: &payment.Session{ID: "cs_6"}})

	body := webhookBody(t, payment.EventSessionCompleted, "cs_never_seen")
	rec := postWebhook(env, body, payment.Sign(body, []byte(testutil.WebhookSecret), time.Now()))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookCompletedReplayIsHarmless(t *testing.T) {
	env := gatewayEnv(t, &fakeProvider{session: &payment.Session{ID: "cs_7"}})
	user := env.CreateUser("shopper", models.RoleUser)
	order := pendingOrder(t, env, user.ID, "cs_7")

	body := webhookBody(t, payment.EventSessionCompleted, "cs_7")
	for i := 0; i < 2; i++ {
		rec := postWebhook(env, body, payment.Sign(body, []byte(testutil.WebhookSecret), time.Now()))
		require.Equal(t, http.StatusOK, rec.Code, fmt.Sprint("attempt ", i))
	}

	var got models.Order
	require.NoError(t, env.DB.First(&got, order.ID).Error)
	require.Equal(t, models.OrderStatusCompleted, got.Status)
}
