package funnel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/autodispatchai/platform/core"
	"github.com/autodispatchai/platform/svc/auth"
	"github.com/autodispatchai/platform/svc/company"
	"github.com/autodispatchai/platform/svc/subscription"
)

// Lookups supplies the two reads the guard performs per navigation: the
// caller's company by owner id, then that company's subscription. Each is
// invoked at most once per request.
type Lookups struct {
	Company      func(ctx context.Context, ownerID uuid.UUID) (*company.Company, error)
	Subscription func(ctx context.Context, companyID uuid.UUID) (*subscription.Subscription, error)
}

// Guard redirects page navigations to the user's current funnel step. API
// and static paths pass through untouched.
type Guard struct {
	lookups Lookups
	log     *slog.Logger
}

// NewGuard creates a funnel route guard. Panics on missing lookups to fail
// fast during initialization.
func NewGuard(lookups Lookups, log *slog.Logger) *Guard {
	if lookups.Company == nil {
		panic("funnel: company lookup is required")
	}
	if lookups.Subscription == nil {
		panic("funnel: subscription lookup is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Guard{lookups: lookups, log: log}
}

// Middleware evaluates the funnel state for page navigations and redirects
// when the requested path does not match the user's step.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if passthrough(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		state := g.Evaluate(r)
		if target, redirect := Route(state, r.URL.Path); redirect {
			core.Redirect(target).Render(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Evaluate computes the caller's funnel state with at most one company read
// and one subscription read.
func (g *Guard) Evaluate(r *http.Request) State {
	ctx := r.Context()
	sess := auth.SessionFromContext(ctx)
	if sess == nil {
		return StateUnauthenticated
	}

	comp, err := g.lookups.Company(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, company.ErrCompanyNotFound) {
			g.log.ErrorContext(ctx, "funnel company lookup failed",
				slog.String("user_id", sess.UserID.String()), slog.Any("error", err))
		}
		return Resolve(sess, nil, nil)
	}

	sub, err := g.lookups.Subscription(ctx, comp.ID)
	if err != nil {
		if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			g.log.ErrorContext(ctx, "funnel subscription lookup failed",
				slog.String("company_id", comp.ID.String()), slog.Any("error", err))
		}
		return Resolve(sess, comp, nil)
	}
	return Resolve(sess, comp, sub)
}

// passthrough reports whether the path is outside the funnel entirely.
func passthrough(path string) bool {
	for _, prefix := range []string{"/api/", "/static/", "/assets/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	switch path {
	case "/favicon.ico", "/robots.txt", "/healthz", "/privacy", "/terms":
		return true
	}
	return false
}

// Route decides whether a page navigation in the given state should be
// redirected, and where. It is a pure function over (state, path).
func Route(state State, path string) (string, bool) {
	app := strings.HasPrefix(path, "/app")
	billing := strings.HasPrefix(path, "/billing")
	onboarding := strings.HasPrefix(path, "/onboarding")
	entry := path == "/" || path == "/login" || path == "/signup"

	switch state {
	case StateUnauthenticated:
		if app || billing || onboarding {
			return "/login", true
		}

	case StateNoCompany:
		if app || billing || entry {
			return "/onboarding/create-company", true
		}

	case StateNoSubscription:
		// The two billing pages the user needs to finish checkout stay
		// reachable; everything else funnels to plan selection.
		billingAllowed := strings.HasPrefix(path, "/billing/choose-plan") ||
			strings.HasPrefix(path, "/billing/success")
		if app || onboarding || entry || (billing && !billingAllowed) {
			return "/billing/choose-plan", true
		}

	case StateActive:
		if entry || onboarding || strings.HasPrefix(path, "/billing/choose-plan") {
			return "/app", true
		}
	}
	return "", false
}
