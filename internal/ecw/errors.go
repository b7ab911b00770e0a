package ecw

import (
	"errors"
	"fmt"
)

var (
	// ErrPatientNotFound is returned when a patient name resolves to nothing.
	ErrPatientNotFound = errors.New("ecw: patient not found")
	// ErrFacilityNotFound is returned when a facility name resolves to nothing.
	ErrFacilityNotFound = errors.New("ecw: facility not found")
	// ErrProviderNotFound is returned when a provider name resolves to nothing.
	ErrProviderNotFound = errors.New("ecw: provider not found")
	// ErrResourceNotFound is returned when a resource name resolves to nothing.
	ErrResourceNotFound = errors.New("ecw: resource not found")
	// ErrReasonNotFound is returned when a visit reason resolves to nothing.
	ErrReasonNotFound = errors.New("ecw: reason not found")
	// ErrVisitTypeNotFound is returned when a visit type is not in the catalog.
	ErrVisitTypeNotFound = errors.New("ecw: visit type not found")
)

// APIError carries an upstream 4xx straight through: the EMR rejected the
// request and its status plus parsed body are the caller's problem.
type APIError struct {
	Status int
	Detail any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ecw: upstream rejected request (HTTP %d)", e.Status)
}

// IntegrationError wraps upstream 5xx (or unexpected statuses). Downstream
// server errors are reported as 501 so callers can tell them apart from
// failures of this service itself.
type IntegrationError struct {
	Integration string
	Message     string
	Status      int
	Code        string
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s: %s (code %s)", e.Integration, e.Message, e.Code)
}

func newServerError(message, code string) *IntegrationError {
	return &IntegrationError{
		Integration: "ecw",
		Message:     fmt.Sprintf("downstream server error (translated to HTTP 501): %s", message),
		Status:      501,
		Code:        code,
	}
}
