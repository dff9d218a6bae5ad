package errx

// Common error constructors for convenience

// Internal creates an internal server error
func Internal(message string) *Error {
	return New(message, TypeInternal)
}

// Validation creates a validation error
func Validation(message string) *Error {
	return New(message, TypeValidation)
}

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(message, TypeNotFound)
}

// Unauthorized creates an authentication error
func Unauthorized(message string) *Error {
	return New(message, TypeAuthorization)
}

// Forbidden creates an authorization error for authenticated callers
func Forbidden(message string) *Error {
	return New(message, TypeForbidden)
}

// Conflict creates a conflict error
func Conflict(message string) *Error {
	return New(message, TypeConflict)
}

// TooManyRequests creates a rate limit error
func TooManyRequests(message string) *Error {
	return New(message, TypeRateLimit)
}

// External creates an external service error
func External(message string) *Error {
	return New(message, TypeExternal)
}
