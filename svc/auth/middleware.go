package auth

import (
	"net/http"

	"github.com/autodispatchai/platform/core"
)

// Middleware verifies the request token and, on success, attaches the
// session to the request context. Unauthenticated requests pass through
// untouched so route guards can decide what to do with them.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, err := v.FromRequest(r); err == nil {
			r = r.WithContext(WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a valid session with 401.
func (v *Verifier) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			var err error
			sess, err = v.FromRequest(r)
			if err != nil {
				core.Error(core.ErrUnauthorized).Render(w, r)
				return
			}
			r = r.WithContext(WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}
