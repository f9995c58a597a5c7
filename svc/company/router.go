package company

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/autodispatchai/platform/core"
	"github.com/autodispatchai/platform/svc/auth"
)

// Router mounts the company API behind the auth middleware:
//
//	GET  /  — list the caller's companies, newest first
//	POST /  — create a company for the caller
func Router(svc *Service, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Get("/", handleList(svc))
	r.Post("/", handleCreate(svc))
	return r
}

func handleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())

		companies, err := svc.List(r.Context(), sess.UserID)
		if err != nil {
			core.Error(err).Render(w, r)
			return
		}
		core.OK(core.Payload{"companies": companies}).Render(w, r)
	}
}

func handleCreate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.Fail(http.StatusBadRequest, "invalid JSON body").Render(w, r)
			return
		}

		created, err := svc.Create(r.Context(), sess.UserID, req)
		if err != nil {
			var missing *MissingFieldError
			switch {
			case errors.As(err, &missing):
				core.Fail(http.StatusBadRequest, missing.Error()).Render(w, r)
			case errors.Is(err, ErrCompanyExists):
				core.Fail(http.StatusConflict, ErrCompanyExists.Error()).Render(w, r)
			case errors.Is(err, ErrEmailTaken):
				core.Fail(http.StatusConflict, ErrEmailTaken.Error()).Render(w, r)
			default:
				core.Error(err).Render(w, r)
			}
			return
		}
		core.OKStatus(http.StatusCreated, core.Payload{"company": created}).Render(w, r)
	}
}
