package model

// Error type categories returned in Result.ErrorType so callers can
// branch on category instead of parsing message text.
const (
	ErrBusinessNotFound = "business_not_found"
	ErrProductNotFound  = "product_not_found"
	ErrOrderNotFound    = "order_not_found"
	ErrPaymentNotFound  = "payment_not_found"
	ErrValidation       = "validation_errors"
	ErrDuplicateProduct = "duplicate_product"
	ErrNoUpdates        = "no_updates"
	ErrAlreadyPaid      = "already_paid"
	ErrMissingPhone     = "missing_phone"
	ErrInvalidPhone     = "invalid_phone"
	ErrPhoneMismatch    = "phone_mismatch"
	ErrInvalidState     = "invalid_state"
	ErrCannotCancel     = "cannot_cancel"
	ErrDatabase         = "database_error"
	ErrSystem           = "system_error"
)

// Result is the structured envelope every core operation returns. The
// calling layer (chat handler / LLM orchestrator) renders Message and
// Context into natural language; the core never raises.
type Result struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	ErrorType string   `json:"error_type,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Data      any      `json:"data,omitempty"`
	Context   any      `json:"context,omitempty"`
}

// Ok builds a success result.
func Ok(message string, data any) *Result {
	return &Result{Success: true, Message: message, Data: data}
}

// OkWarn builds a success result carrying soft-validation warnings.
func OkWarn(message string, data any, warnings []string) *Result {
	return &Result{Success: true, Message: message, Data: data, Warnings: warnings}
}

// Err builds a failure result of the given category.
func Err(errorType, message string) *Result {
	return &Result{Success: false, Message: message, ErrorType: errorType}
}

// ErrCtx builds a failure result with disambiguation context attached.
func ErrCtx(errorType, message string, ctx any) *Result {
	return &Result{Success: false, Message: message, ErrorType: errorType, Context: ctx}
}
