package model

// ErrorResponse is the envelope for HTTP-layer errors raised before a
// core operation runs (bad JSON, auth failures, panics).
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
