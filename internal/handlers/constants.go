package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidFormData     = "Invalid form data"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrNotFound            = "Not found"
	ErrTooManyRequests     = "Too many requests"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrInternalServerError = "Internal server error"
)
