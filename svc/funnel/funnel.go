package funnel

import (
	"github.com/autodispatchai/platform/svc/auth"
	"github.com/autodispatchai/platform/svc/company"
	"github.com/autodispatchai/platform/svc/subscription"
)

// State is the onboarding funnel position. It is always computed fresh from
// the session, company, and subscription; nothing caches it.
type State int

const (
	StateUnauthenticated State = iota
	StateNoCompany
	StateNoSubscription
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateNoCompany:
		return "no_company"
	case StateNoSubscription:
		return "no_subscription"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Resolve computes the funnel state from its three inputs. A trialing
// subscription counts as entitled the same as an active one.
func Resolve(sess *auth.Session, comp *company.Company, sub *subscription.Subscription) State {
	switch {
	case sess == nil:
		return StateUnauthenticated
	case comp == nil:
		return StateNoCompany
	case sub == nil || !sub.Status.Entitled():
		return StateNoSubscription
	default:
		return StateActive
	}
}

// NextPath maps a funnel state to the page that moves the user forward.
func NextPath(s State) string {
	switch s {
	case StateUnauthenticated:
		return "/login"
	case StateNoCompany:
		return "/onboarding/create-company"
	case StateNoSubscription:
		return "/billing/choose-plan"
	default:
		return "/app"
	}
}
