package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cashmoo/internal/core"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps the domain error taxonomy onto HTTP status codes:
// unknown ids are 404, constraint violations 409, validation failures 400
// and everything else a 500.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateCardName),
		errors.Is(err, core.ErrCardHasExpenses),
		errors.Is(err, core.ErrPaymentDayNotAfterClosing):
		status = http.StatusConflict
	case isValidationError(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDay,
		core.ErrInvalidMonth,
		core.ErrInvalidWeekday,
		core.ErrInvalidRecurrence,
		core.ErrInvalidPaymentMethod,
		core.ErrInvalidStatus,
		core.ErrEmptyName,
		core.ErrNameTooLong,
		core.ErrDescriptionTooLong,
		core.ErrMissingDate,
		core.ErrEndBeforeStart,
		core.ErrCardRequired,
		core.ErrCardNotAllowed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
