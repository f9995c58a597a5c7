package httpserver_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func httptestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, "/healthz", nil)
}
