package subscription_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodispatchai/platform/svc/auth"
	"github.com/autodispatchai/platform/svc/billing"
	"github.com/autodispatchai/platform/svc/subscription"
)

func routerFixture(t *testing.T, cfg subscription.Config) (*fixture, http.Handler) {
	t.Helper()
	f := newFixture(t, cfg)
	return f, subscription.Router(f.svc, testRequireAuth())
}

func testRequireAuth() func(http.Handler) http.Handler {
	v := auth.NewVerifier(auth.Config{JWTSecret: "router-test-secret"})
	return v.RequireAuth
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func withAuth(req *http.Request) *http.Request {
	return req.WithContext(auth.WithSession(req.Context(), newSession()))
}

func TestRouter_Checkout(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated request gets 401", func(t *testing.T) {
		t.Parallel()

		_, router := routerFixture(t, enabledConfig())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/billing/checkout",
			strings.NewReader(`{"plan":"PRO","billing":"monthly"}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["ok"])
	})

	t.Run("billing disabled gets 501", func(t *testing.T) {
		t.Parallel()

		cfg := enabledConfig()
		cfg.Enabled = false
		_, router := routerFixture(t, cfg)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withAuth(httptest.NewRequest(http.MethodPost, "/billing/checkout",
			strings.NewReader(`{"plan":"PRO","billing":"monthly"}`))))
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("invalid plan gets 400", func(t *testing.T) {
		t.Parallel()

		_, router := routerFixture(t, enabledConfig())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withAuth(httptest.NewRequest(http.MethodPost, "/billing/checkout",
			strings.NewReader(`{"plan":"MEGA","billing":"monthly"}`))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body gets 400", func(t *testing.T) {
		t.Parallel()

		_, router := routerFixture(t, enabledConfig())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withAuth(httptest.NewRequest(http.MethodPost, "/billing/checkout",
			strings.NewReader(`{plan`))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid request returns checkout url", func(t *testing.T) {
		t.Parallel()

		_, router := routerFixture(t, enabledConfig())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withAuth(httptest.NewRequest(http.MethodPost, "/billing/checkout",
			strings.NewReader(`{"plan":"PRO","billing":"yearly","addOns":["voice"]}`))))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "https://checkout.test/cs_test_1", body["url"])
	})
}

func TestRouter_VerifySession(t *testing.T) {
	t.Parallel()

	t.Run("missing id gets 400", func(t *testing.T) {
		t.Parallel()

		_, router := routerFixture(t, enabledConfig())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withAuth(httptest.NewRequest(http.MethodGet, "/billing/session", nil)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed id gets 400", func(t *testing.T) {
		t.Parallel()

		f, router := routerFixture(t, enabledConfig())
		f.provider.getFn = func(ctx context.Context, id string) (*billing.CheckoutSession, error) {
			return nil, billing.ErrInvalidSessionID
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withAuth(httptest.NewRequest(http.MethodGet, "/billing/session?id=sub_1", nil)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns normalized summary", func(t *testing.T) {
		t.Parallel()

		f, router := routerFixture(t, enabledConfig())
		f.provider.getFn = func(ctx context.Context, id string) (*billing.CheckoutSession, error) {
			return &billing.CheckoutSession{
				ID:             id,
				Status:         "complete",
				PaymentStatus:  "paid",
				CustomerEmail:  "dispatch@haulage.test",
				SubscriptionID: "sub_1",
				Currency:       "usd",
				AmountTotal:    14900,
				LineItems: []billing.SessionLineItem{
					{Description: "PRO plan", PriceID: "price_pro_m", Interval: "month", UnitAmount: 14900, Quantity: 1},
				},
			}, nil
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withAuth(httptest.NewRequest(http.MethodGet, "/billing/session?id=cs_test_1", nil)))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		session, ok := body["session"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "cs_test_1", session["id"])
		assert.Equal(t, "paid", session["payment_status"])
		assert.Equal(t, "dispatch@haulage.test", session["customer_email"])
		items, ok := session["line_items"].([]any)
		require.True(t, ok)
		require.Len(t, items, 1)
	})
}

func TestRouter_Webhook(t *testing.T) {
	t.Parallel()

	t.Run("liveness probe", func(t *testing.T) {
		t.Parallel()

		_, router := routerFixture(t, enabledConfig())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stripe/webhook", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "webhook alive", body["status"])
		assert.NotEmpty(t, body["ts"])
	})

	t.Run("invalid signature gets 400", func(t *testing.T) {
		t.Parallel()

		_, router := routerFixture(t, enabledConfig())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader(`{}`))
		req.Header.Set("stripe-signature", "t=1,v1=bad")
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["ok"])
	})

	t.Run("verified delivery acked even when unmatched", func(t *testing.T) {
		t.Parallel()

		f, router := routerFixture(t, enabledConfig())
		f.provider.parseFn = func(context.Context, []byte, string) (*billing.Event, error) {
			return checkoutEvent("evt_1", "nobody@haulage.test", "sub_1", nil), nil
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader(`{}`))
		req.Header.Set("stripe-signature", "t=1,v1=good")
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["received"])

		letters, err := f.deadLetters.ListUnresolved(context.Background(), 10)
		require.NoError(t, err)
		assert.Len(t, letters, 1)
	})
}
