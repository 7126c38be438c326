package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

type errorResponse struct {
	Error  string         `json:"error"`
	Code   string         `json:"code,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

func statusFor(code scheduling.Code) int {
	switch code {
	case scheduling.CodeNotFound:
		return http.StatusNotFound
	case scheduling.CodeForbidden:
		return http.StatusForbidden
	case scheduling.CodeProviderConflict, scheduling.CodeCustomerConflict,
		scheduling.CodeAvailabilityExists, scheduling.CodeAlreadyCompleted:
		return http.StatusConflict
	case scheduling.CodeOutsideAvailability, scheduling.CodeBlockedSlot,
		scheduling.CodePastDate, scheduling.CodeTooFarAhead, scheduling.CodeTooLateToCancel:
		return http.StatusUnprocessableEntity
	case scheduling.CodeTryAgain:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// writeError answers with the business code of err, or a bare 500 for
// anything else.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var bizErr *scheduling.Error
	if errors.As(err, &bizErr) {
		httpx.WriteJSON(w, statusFor(bizErr.Code), errorResponse{
			Error:  bizErr.Message,
			Code:   string(bizErr.Code),
			Params: bizErr.Params,
		})
		return
	}
	logger.Error("request failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "", "internal error")
}

func invalidDate() error {
	return &scheduling.Error{Code: scheduling.CodeInvalidDate, Message: "invalid date format (expected ISO-8601)"}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return scheduling.InvalidInput("invalid json body")
	}
	return nil
}

// currentUser returns the authenticated user id, answering 401 when there
// is none.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "", "unauthorized")
	}
	return id, ok
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}
