package entities

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure class. Codes are string-based for
// debuggability and natural JSON serialization.
type ErrorCode string

const (
	// CodeDataSourceUnavailable indicates an external data source call
	// failed. These errors always propagate; the engine never substitutes
	// zero for a failed read.
	CodeDataSourceUnavailable ErrorCode = "DATA_SOURCE_UNAVAILABLE"

	// CodeProductNotFound indicates no movement, commitment or supply data
	// exists for a product code or any of its aliases.
	CodeProductNotFound ErrorCode = "PRODUCT_NOT_FOUND"

	// CodeInvalidHorizon indicates a negative projection horizon.
	CodeInvalidHorizon ErrorCode = "INVALID_HORIZON"

	// CodeTimeout indicates a single product's projection exceeded the
	// per-item budget during a catalog scan.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeCancelled indicates a caller-initiated abort of a catalog scan.
	CodeCancelled ErrorCode = "CANCELLED"
)

var (
	// ErrProductNotFound is returned when a product is unknown to every
	// data source, across its whole alias group.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidHorizon is returned for a negative horizon.
	ErrInvalidHorizon = errors.New("horizon days cannot be negative")

	// ErrProjectionTimeout marks a per-product timeout inside a scan.
	ErrProjectionTimeout = errors.New("projection timed out")

	// ErrScanCancelled is returned by a scan aborted through its context.
	// The partial report accompanying it is still valid.
	ErrScanCancelled = errors.New("catalog scan cancelled")
)

// SourceError wraps a failure from an external data source, preserving
// which source and operation failed. A failed read must surface as
// "status unknown", never as a zero balance that masquerades as OK.
type SourceError struct {
	Source string
	Op     string
	Err    error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source unavailable during %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Code returns the taxonomy code for an error
func Code(err error) ErrorCode {
	var se *SourceError
	switch {
	case errors.Is(err, ErrInvalidHorizon):
		return CodeInvalidHorizon
	case errors.Is(err, ErrProductNotFound):
		return CodeProductNotFound
	case errors.Is(err, ErrProjectionTimeout):
		return CodeTimeout
	case errors.Is(err, ErrScanCancelled):
		return CodeCancelled
	case errors.As(err, &se):
		return CodeDataSourceUnavailable
	default:
		return ""
	}
}
