package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds the Stripe credentials.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// StripeProvider implements Provider on top of the official Stripe SDK.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe billing provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	return &StripeProvider{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// CreateCheckoutSession creates a hosted subscription checkout session.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if len(req.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
	}
	params.Context = ctx

	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if req.TrialDays > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(req.TrialDays),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{
		ID:     sess.ID,
		URL:    sess.URL,
		Status: string(sess.Status),
	}, nil
}

// GetCheckoutSession retrieves a checkout session with expanded line items
// for the post-payment verification page.
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if !strings.HasPrefix(id, "cs_") {
		return nil, ErrInvalidSessionID
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items.data.price.product")
	params.AddExpand("subscription")
	params.AddExpand("customer")

	sess, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stripe checkout session: %w", err)
	}

	out := &CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		Currency:      string(sess.Currency),
		AmountTotal:   sess.AmountTotal,
	}
	if sess.CustomerDetails != nil {
		out.CustomerEmail = sess.CustomerDetails.Email
	}
	if out.CustomerEmail == "" {
		out.CustomerEmail = sess.CustomerEmail
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	if sess.LineItems != nil {
		for _, li := range sess.LineItems.Data {
			item := SessionLineItem{
				Description: li.Description,
				Quantity:    li.Quantity,
			}
			if item.Description == "" {
				item.Description = "Item"
			}
			if li.Price != nil {
				item.PriceID = li.Price.ID
				item.UnitAmount = li.Price.UnitAmount
				if li.Price.Recurring != nil {
					item.Interval = string(li.Price.Recurring.Interval)
				}
				// Prefer the product name, then the price nickname.
				if li.Price.Product != nil && li.Price.Product.Name != "" {
					item.Description = li.Price.Product.Name
				} else if li.Price.Nickname != "" {
					item.Description = li.Price.Nickname
				}
			}
			out.LineItems = append(out.LineItems, item)
		}
	}
	return out, nil
}

// ParseWebhook verifies the stripe-signature header and normalizes the event.
// Payload fields are decoded from the raw event JSON: the handler only needs
// a handful of fields and raw access keeps it independent of SDK API-version
// struct changes.
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}

	event := &Event{
		ID:            stripeEvent.ID,
		ProviderEvent: string(stripeEvent.Type),
	}

	switch stripeEvent.Type {
	case "checkout.session.completed":
		event.Type = EventCheckoutCompleted

		var sess struct {
			ID              string          `json:"id"`
			Customer        json.RawMessage `json:"customer"`
			Subscription    json.RawMessage `json:"subscription"`
			CustomerEmail   string          `json:"customer_email"`
			CustomerDetails struct {
				Email string `json:"email"`
			} `json:"customer_details"`
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session payload: %w", err)
		}

		event.CustomerEmail = sess.CustomerDetails.Email
		if event.CustomerEmail == "" {
			event.CustomerEmail = sess.CustomerEmail
		}
		event.CustomerID = objectID(sess.Customer)
		event.SubscriptionID = objectID(sess.Subscription)
		event.Metadata = sess.Metadata

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		switch stripeEvent.Type {
		case "customer.subscription.created":
			event.Type = EventSubscriptionCreated
		case "customer.subscription.updated":
			event.Type = EventSubscriptionUpdated
		default:
			event.Type = EventSubscriptionDeleted
		}

		var sub struct {
			ID               string          `json:"id"`
			Status           string          `json:"status"`
			Customer         json.RawMessage `json:"customer"`
			CurrentPeriodEnd int64           `json:"current_period_end"`
			TrialEnd         int64           `json:"trial_end"`
		}
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription payload: %w", err)
		}

		event.SubscriptionID = sub.ID
		event.Status = sub.Status
		event.CustomerID = objectID(sub.Customer)
		if sub.CurrentPeriodEnd > 0 {
			t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			event.PeriodEnd = &t
		}
		if sub.TrialEnd > 0 {
			t := time.Unix(sub.TrialEnd, 0).UTC()
			event.TrialEnd = &t
		}

	case "invoice.paid":
		event.Type = EventInvoicePaid
	case "invoice.payment_failed":
		event.Type = EventInvoicePaymentFailed
	default:
		event.Type = EventIgnored
	}

	return event, nil
}

// objectID extracts an id from a Stripe reference that may be either a bare
// string id or an expanded object.
func objectID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
