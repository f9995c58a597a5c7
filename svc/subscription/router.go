package subscription

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/autodispatchai/platform/core"
	"github.com/autodispatchai/platform/svc/auth"
	"github.com/autodispatchai/platform/svc/billing"
)

// Webhook bodies are small; cap reads well below any real payload size.
const maxWebhookBody = 1 << 20

// Router mounts the billing API. The /billing endpoints sit behind the auth
// middleware; the webhook receiver authenticates by signature instead.
//
//	POST /billing/checkout — create a hosted checkout session
//	GET  /billing/session  — verify a completed checkout session
//	GET  /stripe/webhook   — webhook liveness probe
//	POST /stripe/webhook   — provider webhook receiver
func Router(svc *Service, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/billing", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/checkout", handleCheckout(svc))
		r.Get("/session", handleVerifySession(svc))
	})
	r.Route("/stripe", func(r chi.Router) {
		r.Get("/webhook", handleWebhookLiveness())
		r.Post("/webhook", handleWebhook(svc))
	})
	return r
}

func handleCheckout(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())

		var in CheckoutInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			core.Fail(http.StatusBadRequest, "invalid JSON body").Render(w, r)
			return
		}

		session, err := svc.CreateCheckout(r.Context(), sess, in)
		if err != nil {
			var missing *billing.MissingPriceError
			switch {
			case errors.Is(err, ErrBillingDisabled):
				core.Fail(http.StatusNotImplemented, ErrBillingDisabled.Error()).Render(w, r)
			case errors.Is(err, billing.ErrInvalidPlan),
				errors.Is(err, billing.ErrInvalidCycle),
				errors.Is(err, billing.ErrInvalidAddOn):
				core.Fail(http.StatusBadRequest, err.Error()).Render(w, r)
			case errors.As(err, &missing):
				core.Fail(http.StatusBadRequest, missing.Error()).Render(w, r)
			default:
				core.Error(err).Render(w, r)
			}
			return
		}
		core.OK(core.Payload{"url": session.URL}).Render(w, r)
	}
}

func handleVerifySession(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := svc.VerifySession(r.Context(), r.URL.Query().Get("id"))
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingSessionID), errors.Is(err, billing.ErrInvalidSessionID):
				core.Fail(http.StatusBadRequest, err.Error()).Render(w, r)
			default:
				core.Error(err).Render(w, r)
			}
			return
		}
		core.OK(core.Payload{"session": sessionSummary(session)}).Render(w, r)
	}
}

// sessionSummary shapes a checkout session for the success page.
func sessionSummary(s *billing.CheckoutSession) core.Payload {
	items := s.LineItems
	if items == nil {
		items = []billing.SessionLineItem{}
	}
	return core.Payload{
		"id":              s.ID,
		"status":          s.Status,
		"payment_status":  s.PaymentStatus,
		"customer_email":  s.CustomerEmail,
		"customer_id":     s.CustomerID,
		"subscription_id": s.SubscriptionID,
		"currency":        s.Currency,
		"amount_total":    s.AmountTotal,
		"line_items":      items,
	}
}

func handleWebhookLiveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		core.OK(core.Payload{
			"status": "webhook alive",
			"ts":     time.Now().UTC().Format(time.RFC3339),
		}).Render(w, r)
	}
}

func handleWebhook(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			core.Fail(http.StatusBadRequest, "failed to read request body").Render(w, r)
			return
		}

		signature := r.Header.Get("stripe-signature")
		if signature == "" {
			signature = r.Header.Get("Paddle-Signature")
		}

		if err := svc.HandleWebhook(r.Context(), payload, signature); err != nil {
			core.Fail(http.StatusBadRequest, "webhook signature verification failed").Render(w, r)
			return
		}
		core.OK(core.Payload{"received": true}).Render(w, r)
	}
}
