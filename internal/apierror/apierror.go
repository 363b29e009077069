// Package apierror defines the JSON error envelopes returned to API clients.
// Handlers translate service errors into these shapes; raw database or
// internal errors never reach the wire.
package apierror

// APIError is the envelope for every 4xx/5xx response body.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries per-field messages for a rejected request body.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}
