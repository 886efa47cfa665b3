package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	svcauth "github.com/servercraft/authkit/svc/auth"
	"github.com/servercraft/authkit/svc/twofactor"
)

// envelope is the uniform JSON response body.
type envelope struct {
	Code  string       `json:"code,omitempty"`
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, envelope{Code: "ok", Data: data})
}

// validationError carries per-field problems with the request body.
type validationError map[string][]string

func (v validationError) Error() string { return "validation failed" }

func (v validationError) add(field, problem string) {
	v[field] = append(v[field], problem)
}

// respondError maps the service error taxonomy onto HTTP statuses. Error
// bodies stay as coarse as the taxonomy itself; nothing leaks about which
// internal check failed.
func respondError(w http.ResponseWriter, err error) {
	var valErr validationError
	if errors.As(err, &valErr) {
		respondJSON(w, http.StatusUnprocessableEntity, envelope{
			Code:  "validation_error",
			Error: &errorDetail{Code: "validation_error", Details: valErr},
		})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, svcauth.ErrInvalidCredentials),
		errors.Is(err, twofactor.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, svcauth.ErrInvalidSecondFactor),
		errors.Is(err, twofactor.ErrInvalidSecondFactor):
		status, code = http.StatusUnauthorized, "invalid_second_factor"
	case errors.Is(err, svcauth.ErrExpiredTempToken):
		status, code = http.StatusUnauthorized, "expired_temp_token"
	case errors.Is(err, errUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, svcauth.ErrRateLimited),
		errors.Is(err, twofactor.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, twofactor.ErrAlreadyEnabled):
		status, code = http.StatusConflict, "already_enabled"
	case errors.Is(err, twofactor.ErrNotPending):
		status, code = http.StatusConflict, "not_pending"
	case errors.Is(err, twofactor.ErrNotEnrolled):
		status, code = http.StatusConflict, "not_enrolled"
	}

	detail := &errorDetail{Code: code}
	if status != http.StatusInternalServerError {
		detail.Message = err.Error()
	}
	respondJSON(w, status, envelope{Code: code, Error: detail})
}
