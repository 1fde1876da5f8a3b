/*
errors.go - Error types and error codes for the work-time engine

PURPOSE:
  Go errors raised inside the engine live here as sentinels and structured
  errors. They never escape Processor.Process: the processor converts them
  into an in-band ErrorDetails carrying one of the ErrorCode values below.

ERROR CATEGORIES:
  1. Input-shape errors - empty batches, unknown mode, mixed record shapes
  2. Validation errors - malformed dates/clocks, unmapped status codes
  3. Setting errors - invalid policy values under strict validation
  4. Lookup errors - missing runs/profiles (used by the store and api)

SEE ALSO:
  - processor.go: Converts errors to ErrorDetails
  - policy.go: Produces SettingError
  - store/sqlite: Wraps ErrNotFound
*/
package worktime

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period string is not "YYYY-MM".
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidDate is returned when a date is not "YYYY-MM-DD".
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidClock is returned when a time of day is not "HH:MM".
	ErrInvalidClock = errors.New("invalid time of day")

	// ErrUnknownStatusCode is returned under strict validation when an
	// attendance record names a code with no table entry.
	ErrUnknownStatusCode = errors.New("unknown attendance status code")

	// ErrDuplicateDate is returned under strict validation when two records
	// share a date.
	ErrDuplicateDate = errors.New("duplicate record date")

	// ErrInvalidRecord is returned when a raw record is missing a required field.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrMixedRecords is returned when a batch mixes attendance and timecard shapes.
	ErrMixedRecords = errors.New("batch mixes attendance and timecard records")

	// ErrInvalidSetting is returned under strict validation for unusable policy values.
	ErrInvalidSetting = errors.New("invalid policy setting")

	// ErrNotFound is returned when a stored run, profile or holiday doesn't exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// ERROR CODES - Surfaced in ErrorDetails.ErrorCode
// =============================================================================

type ErrorCode string

const (
	CodeEmptyInput            ErrorCode = "EMPTY_INPUT"
	CodeEmptyRecords          ErrorCode = "EMPTY_RECORDS"
	CodeInvalidInputFormat    ErrorCode = "INVALID_INPUT_FORMAT"
	CodeInputValidation       ErrorCode = "INPUT_VALIDATION_ERROR"
	CodeUnknownProcessingMode ErrorCode = "UNKNOWN_PROCESSING_MODE"
	CodeCalculation           ErrorCode = "CALCULATION_ERROR"
	CodeProcessing            ErrorCode = "PROCESSING_ERROR"
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SettingError names the settings key that could not be resolved.
type SettingError struct {
	Key    string
	Value  any
	Reason string
}

func (e *SettingError) Error() string {
	return fmt.Sprintf("invalid setting %s=%v: %s", e.Key, e.Value, e.Reason)
}

func (e *SettingError) Unwrap() error {
	return ErrInvalidSetting
}

// RecordError points at the offending input record by position.
type RecordError struct {
	Index int
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("record %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// CalculationError is an error already classified with an ErrorCode.
type CalculationError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

func (e *CalculationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

// ErrorDetails converts the error into its in-band form.
func (e *CalculationError) ErrorDetails() *ErrorDetails {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return &ErrorDetails{ErrorCode: e.Code, Message: msg, Details: e.Details}
}

func newCalcError(code ErrorCode, message string, err error) *CalculationError {
	return &CalculationError{Code: code, Message: message, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidClock) ||
		errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrMixedRecords) ||
		errors.Is(err, ErrInvalidSetting)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
