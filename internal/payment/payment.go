// Package payment talks to the external hosted-checkout processor and
// verifies the signed events it sends back.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsolovyev/neonwear/internal/apperr"
)

const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
)

// Session is the hosted payment page handle the processor assigns.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type SessionRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	UserID   uint            `json:"user_id"`
}

type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

type GatewayClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewGatewayClient(baseURL, apiKey string) *GatewayClient {
	return &GatewayClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GatewayClient) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode session request: %v", apperr.ErrExternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build session request: %v", apperr.ErrExternal, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := g.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", apperr.ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: create session: status %d", apperr.ErrExternal, resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", apperr.ErrExternal, err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("%w: create session: empty session id", apperr.ErrExternal)
	}
	return &session, nil
}
