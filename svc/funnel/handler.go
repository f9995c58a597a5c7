package funnel

import (
	"net/http"

	"github.com/autodispatchai/platform/core"
)

// RedirectHandler resolves the caller's funnel state server-side and sends a
// 303 to the page that moves them forward. The frontend calls it after login
// instead of re-implementing the funnel rules.
func RedirectHandler(g *Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := g.Evaluate(r)
		core.Redirect(NextPath(state)).Render(w, r)
	}
}
