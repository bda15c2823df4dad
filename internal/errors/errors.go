package errors

import "errors"

// This package defines the application's sentinel errors. Services return
// these (wrapped with context via fmt.Errorf and %w) instead of HTTP status
// codes; the API layer maps them to responses with errors.Is. This keeps the
// business logic free of transport concerns.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// Mapped to 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that client input failed business rule
	// validation. Mapped to 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation conflicts with the current
	// state of a resource. Mapped to 409 Conflict.
	ErrConflict = errors.New("resource conflict")

	// ErrPermission signifies that the caller is not authorized to perform
	// the requested action. Mapped to 403 Forbidden.
	ErrPermission = errors.New("permission denied")

	// ErrUpstream signifies that the LLM provider failed or was unreachable.
	// The API layer passes through 401/403/404/429 from the provider and
	// normalizes everything else to 503 Service Unavailable.
	ErrUpstream = errors.New("upstream provider error")

	// ErrInternal signifies an unexpected server-side error. Mapped to 500
	// without leaking implementation details to the client.
	ErrInternal = errors.New("internal server error")
)
