// Package funnel computes the onboarding funnel state and guards page
// routes. The state is a pure function of (session, company, subscription);
// the guard re-evaluates it on every navigation with at most one company
// and one subscription read.
package funnel
