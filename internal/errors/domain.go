// Package errors defines the typed domain errors shared across the service.
package errors

// DomainError is a stable failure kind with an HTTP status classification.
// Handlers map Status to the response code; Code is the machine-readable
// identifier surfaced to API clients.
type DomainError struct {
	Code    string
	Message string
	Status  int
}

func (e *DomainError) Error() string {
	return e.Message
}
