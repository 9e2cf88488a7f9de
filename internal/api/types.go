// Package api defines the JSON shapes shared by all HTTP handlers.
package api

// ErrorResponse is the body of every single-message failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldError is one field-level validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries the full list of violations for a request.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// InternalServerError is the opaque body returned for unexpected failures.
const InternalServerError = "Internal server error"
