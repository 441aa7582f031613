package sanity

import (
	"errors"
	"fmt"
)

// Common store API errors.
var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("unauthorized: check SANITY_API_TOKEN")
	// ErrForbidden is returned when authorization fails.
	ErrForbidden = errors.New("forbidden: token may lack write access to the dataset")
	// ErrConflict is returned when a document already exists.
	ErrConflict = errors.New("conflict: document already exists")
)

// APIError is any other non-2xx response.
type APIError struct {
	Status      int
	Type        string
	Description string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("sanity API error %d (%s): %s", e.Status, e.Type, e.Description)
	}
	return fmt.Sprintf("sanity API error %d: %s", e.Status, e.Description)
}
