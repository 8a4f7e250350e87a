/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Collaborator packages (attendance, stores, api) wrap these with context.

ERROR CATEGORIES:
  1. Configuration errors - Policy values missing or out of range.
     Surfaced as a zero-salary report, never as a failed calculation.
  2. Classification errors - One day's stored time cannot be parsed.
     Absorbed into that day's record, the run continues.
  3. Store errors - Duplicate or missing attendance data. Only raised by
     stores and the attendance service; the engine never writes.

USAGE:
    if errors.Is(err, payroll.ErrDuplicateLog) {
        // 409 Conflict
    }

    var cfgErr *payroll.ConfigurationError
    if errors.As(err, &cfgErr) {
        log.Warn().Str("key", cfgErr.Key).Msg(cfgErr.Reason)
    }

SEE ALSO:
  - policy.go: Produces ConfigurationError
  - classify.go: Produces ClassificationError
  - api/handlers.go: Maps errors to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotConfigured is the base of every ConfigurationError.
	ErrNotConfigured = errors.New("pay policy not configured")

	// ErrInvalidTime is returned when a stored time-of-day is not HH:MM[:SS].
	ErrInvalidTime = errors.New("invalid time format")

	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date format")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrMissingTimeIn is returned when an entry is written without an IN time.
	ErrMissingTimeIn = errors.New("IN time cannot be empty")

	// ErrIncompleteEntry is returned when a new entry lacks a date or time.
	ErrIncompleteEntry = errors.New("date, IN and OUT time are all required")

	// ErrDuplicateLog is returned when a log already exists for a date.
	ErrDuplicateLog = errors.New("attendance log already exists for date")

	// ErrLogNotFound is returned when no log exists for a date.
	ErrLogNotFound = errors.New("attendance log not found")

	// ErrNoClockIn is returned when clocking out without an IN time today.
	ErrNoClockIn = errors.New("no IN time recorded for today")

	// ErrDuplicateHoliday is returned when a holiday already exists for a date.
	ErrDuplicateHoliday = errors.New("holiday already exists for date")

	// ErrHolidayNotFound is returned when no holiday exists for a date.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrRunExists is returned when a period-close run was already recorded.
	ErrRunExists = errors.New("payroll run already recorded for period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError reports a pay policy value that is missing or invalid.
type ConfigurationError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("configuration: %s=%q: %s", e.Key, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrNotConfigured
}

// ClassificationError reports a day whose stored time could not be read.
// It never aborts a calculation.
type ClassificationError struct {
	Date  Date
	Field string // "time_in"
	Value string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %s %q is not a valid time", e.Date, e.Field, e.Value)
}

func (e *ClassificationError) Unwrap() error {
	return ErrInvalidTime
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrMissingTimeIn) ||
		errors.Is(err, ErrIncompleteEntry) ||
		errors.Is(err, ErrNoClockIn) ||
		errors.Is(err, ErrNotConfigured)
}

// IsConflict returns true if the error indicates a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateLog) ||
		errors.Is(err, ErrDuplicateHoliday) ||
		errors.Is(err, ErrRunExists)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLogNotFound) ||
		errors.Is(err, ErrHolidayNotFound)
}
