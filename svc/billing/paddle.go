package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds the Paddle credentials.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle Billing. Checkout is backed
// by transactions with catalog items; Paddle has no equivalent of a
// retrievable checkout session, so GetCheckoutSession reports
// ErrSessionNotSupported.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle billing provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var sdk *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		sdk, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		sdk, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   sdk,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

// CreateCheckoutSession creates a Paddle transaction with a hosted checkout URL.
func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if len(req.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	items := make([]paddle.CreateTransactionItems, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
			PriceID:  li.PriceID,
			Quantity: int(li.Quantity),
		})
		items = append(items, *item)
	}

	txnReq := &paddle.CreateTransactionRequest{
		Items:      items,
		CustomData: paddle.CustomData{},
	}
	for k, v := range req.Metadata {
		txnReq.CustomData[k] = v
	}
	if req.Email != "" {
		txnReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		txnReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	txn, err := p.client.TransactionsClient.CreateTransaction(ctx, txnReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}
	if txn.Checkout == nil || txn.Checkout.URL == nil || *txn.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{
		ID:     txn.ID,
		URL:    *txn.Checkout.URL,
		Status: string(txn.Status),
	}, nil
}

// GetCheckoutSession is not supported by Paddle transactions.
func (p *PaddleProvider) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	return nil, ErrSessionNotSupported
}

// ParseWebhook verifies the Paddle-Signature header and normalizes the event.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var raw struct {
		EventID   string `json:"event_id"`
		EventType string `json:"event_type"`
		Data      struct {
			ID               string            `json:"id"`
			SubscriptionID   string            `json:"subscription_id"`
			Status           string            `json:"status"`
			CustomerID       string            `json:"customer_id"`
			CurrentPeriodEnd string            `json:"next_billed_at"`
			CustomData       map[string]string `json:"custom_data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	event := &Event{
		ID:            raw.EventID,
		ProviderEvent: raw.EventType,
		Status:        raw.Data.Status,
		CustomerID:    raw.Data.CustomerID,
		Metadata:      raw.Data.CustomData,
	}

	switch raw.EventType {
	case "transaction.completed":
		event.Type = EventCheckoutCompleted
		event.SubscriptionID = raw.Data.SubscriptionID
		event.CustomerEmail = raw.Data.CustomData["email"]
	case "subscription.created":
		event.Type = EventSubscriptionCreated
		event.SubscriptionID = raw.Data.ID
	case "subscription.updated", "subscription.resumed", "subscription.paused":
		event.Type = EventSubscriptionUpdated
		event.SubscriptionID = raw.Data.ID
	case "subscription.canceled":
		event.Type = EventSubscriptionDeleted
		event.SubscriptionID = raw.Data.ID
	case "transaction.payment_failed":
		event.Type = EventInvoicePaymentFailed
	default:
		event.Type = EventIgnored
	}

	if event.SubscriptionID != "" && raw.Data.CurrentPeriodEnd != "" {
		if t, err := time.Parse(time.RFC3339, raw.Data.CurrentPeriodEnd); err == nil {
			t = t.UTC()
			event.PeriodEnd = &t
		}
	}

	return event, nil
}
