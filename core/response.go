package core

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Response renders itself to an http.ResponseWriter. Implementations set
// headers, status code, and body.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Payload carries the JSON body fields alongside the "ok" flag.
type Payload map[string]any

type jsonResponse struct {
	status int
	body   Payload
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// OK creates a 200 response with `{"ok": true}` plus the given fields.
func OK(fields Payload) Response {
	return OKStatus(http.StatusOK, fields)
}

// OKStatus is OK with an explicit status code (e.g. 201 on create).
func OKStatus(status int, fields Payload) Response {
	body := Payload{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	return jsonResponse{status: status, body: body}
}

// Fail creates an error response `{"ok": false, "error": msg}` with the given
// status code.
func Fail(status int, msg string) Response {
	return jsonResponse{status: status, body: Payload{"ok": false, "error": msg}}
}

// Error maps an error to a Fail response. HTTPError values carry their own
// status code; everything else is a 500 with the error text passed through.
func Error(err error) Response {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		msg := httpErr.Message
		if msg == "" {
			msg = http.StatusText(httpErr.Code)
		}
		return Fail(httpErr.Code, msg)
	}
	return Fail(http.StatusInternalServerError, err.Error())
}
