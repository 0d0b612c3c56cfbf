package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrExternalAPI indicates that a rate source could not deliver a usable snapshot.
var ErrExternalAPI = errors.New("external api error")

// ErrDataProcessing indicates that a whole collection batch produced no usable data.
var ErrDataProcessing = errors.New("data processing error")

// ErrDatabase indicates that a storage operation failed.
var ErrDatabase = errors.New("database error")

// ErrCycleInProgress is returned when a collection cycle is requested while another one is running.
var ErrCycleInProgress = errors.New("collection cycle already in progress")

// ExternalAPIError describes a failed fetch from a rate source.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Err        error
}

// NewExternalAPIError creates an ExternalAPIError for the given source.
func NewExternalAPIError(source string, statusCode int, err error) *ExternalAPIError {
	return &ExternalAPIError{Source: source, StatusCode: statusCode, Err: err}
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("external api error (%s, status %d): %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("external api error (%s): %v", e.Source, e.Err)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrExternalAPI.
func (e *ExternalAPIError) Is(target error) bool { return target == ErrExternalAPI }

// DataValidationError describes a single rejected sample. The batch it came from continues.
type DataValidationError struct {
	CurrencyCode string
	Reason       string
}

// NewDataValidationError creates a DataValidationError.
func NewDataValidationError(currencyCode, reason string) *DataValidationError {
	return &DataValidationError{CurrencyCode: currencyCode, Reason: reason}
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("validation error: currency %q: %s", e.CurrencyCode, e.Reason)
}

// Is lets errors.Is match ErrValidation.
func (e *DataValidationError) Is(target error) bool { return target == ErrValidation }

// DataProcessingError is raised when an entire batch fails at a processing stage.
type DataProcessingError struct {
	Source string
	Stage  string
	Err    error
}

// NewDataProcessingError creates a DataProcessingError.
func NewDataProcessingError(source, stage string, err error) *DataProcessingError {
	return &DataProcessingError{Source: source, Stage: stage, Err: err}
}

func (e *DataProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data processing error (%s, stage %s): %v", e.Source, e.Stage, e.Err)
	}
	return fmt.Sprintf("data processing error (%s, stage %s)", e.Source, e.Stage)
}

func (e *DataProcessingError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrDataProcessing.
func (e *DataProcessingError) Is(target error) bool { return target == ErrDataProcessing }

// DatabaseError carries the failed operation and the logical table it targeted.
type DatabaseError struct {
	Op    string
	Table string
	Err   error
}

// NewDatabaseError creates a DatabaseError.
func NewDatabaseError(op, table string, err error) *DatabaseError {
	return &DatabaseError{Op: op, Table: table, Err: err}
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error (%s on %s): %v", e.Op, e.Table, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrDatabase.
func (e *DatabaseError) Is(target error) bool { return target == ErrDatabase }
