package handler

import (
	"encoding/json"
	"net/http"

	"sasabot/internal/middleware"
	"sasabot/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code. The
// status line is already on the wire when encoding starts, so an
// encode failure cannot be reported to the client.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger zerolog.Logger) {
	correlationID := middleware.CorrelationID(r.Context())
	logger.Error().
		Str("error", message).
		Int("status", status).
		Str("correlation_id", correlationID).
		Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{
		Error:         http.StatusText(status),
		Message:       message,
		CorrelationID: correlationID,
	})
}

// writeResult marshals a core Result envelope verbatim, mapping its
// error category onto an HTTP status. The envelope itself stays the
// contract; the status is a transport convenience.
func writeResult(w http.ResponseWriter, result *model.Result) {
	writeJSON(w, statusFor(result), result)
}

func statusFor(result *model.Result) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.ErrorType {
	case model.ErrBusinessNotFound, model.ErrProductNotFound,
		model.ErrOrderNotFound, model.ErrPaymentNotFound:
		return http.StatusNotFound
	case model.ErrValidation, model.ErrNoUpdates, model.ErrMissingPhone,
		model.ErrInvalidPhone, model.ErrPhoneMismatch:
		return http.StatusUnprocessableEntity
	case model.ErrDuplicateProduct, model.ErrAlreadyPaid,
		model.ErrInvalidState, model.ErrCannotCancel:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
