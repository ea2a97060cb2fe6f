// Package businessflow contains the core business logic for tariff ingestion and export
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Feed/normalization errors
	ErrMalformedPayload        = errors.New("tariffs payload has an unexpected shape")
	ErrMissingWarehouseName    = errors.New("tariffs payload contains a warehouse without a name")
	ErrWarehouseIDNotResolved  = errors.New("warehouse id not resolved for dedupe key")
	ErrInvalidDate             = errors.New("invalid tariff date, expected YYYY-MM-DD")

	// Export errors
	ErrExportTargetNotFound = errors.New("export target not found")
	ErrNoTariffRowsForDate  = errors.New("no tariff rows stored for date")
)

// FetchError is a non-success response from the upstream feed. It carries
// the status code and response body unmodified so the caller's retry policy
// can inspect them.
type FetchError struct {
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("tariffs feed request failed: status %d", e.Status)
}

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsMalformedPayload(err error) bool {
	return errors.Is(err, ErrMalformedPayload)
}

func IsMissingWarehouseName(err error) bool {
	return errors.Is(err, ErrMissingWarehouseName)
}

func IsInvalidDate(err error) bool {
	return errors.Is(err, ErrInvalidDate)
}

func IsExportTargetNotFound(err error) bool {
	return errors.Is(err, ErrExportTargetNotFound)
}

func IsNoTariffRowsForDate(err error) bool {
	return errors.Is(err, ErrNoTariffRowsForDate)
}

func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
