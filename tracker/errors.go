package tracker

import (
	"errors"
	"fmt"

	"github.com/warp/leave-calendar/ledger"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrEventNotFound   = errors.New("event not found")
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrInvalidInput is returned for malformed non-event input (login
	// credentials, holidays, balances).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidEvent is returned for malformed input (missing title, unknown
	// kind or source, zero date).
	ErrInvalidEvent = errors.New("invalid event")

	// ErrCasualLeaveMonthTaken: a user may earn one casual leave per month.
	ErrCasualLeaveMonthTaken = errors.New("casual leave already added for this month")

	// ErrCreditUnavailable: the leave references a credit that is unknown,
	// consumed or claimed.
	ErrCreditUnavailable = errors.New("credit not available")

	// ErrCreditInUse: the credit is consumed by a leave and cannot be deleted
	// or turned into another kind.
	ErrCreditInUse = errors.New("credit is consumed by a leave")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

type InvalidEventError struct {
	Field  string
	Reason string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid event: %s %s", e.Field, e.Reason)
}

func (e *InvalidEventError) Unwrap() error { return ErrInvalidEvent }

type MonthTakenError struct {
	Month    string
	Existing ledger.EventID
}

func (e *MonthTakenError) Error() string {
	return fmt.Sprintf("casual leave already added for %s (event %s)", e.Month, e.Existing)
}

func (e *MonthTakenError) Unwrap() error { return ErrCasualLeaveMonthTaken }

// CreditUnavailableError names the credit (or the pool, when the caller asked
// for "any casual"/"any extra") that could not be consumed.
type CreditUnavailableError struct {
	CreditID ledger.EventID
	Pool     ledger.LeaveSource
	Status   ledger.CreditStatus
}

func (e *CreditUnavailableError) Error() string {
	if e.CreditID == "" {
		return fmt.Sprintf("no %s credit available", e.Pool)
	}
	return fmt.Sprintf("credit %s not available (%s)", e.CreditID, e.Status)
}

func (e *CreditUnavailableError) Unwrap() error { return ErrCreditUnavailable }

type CreditInUseError struct {
	CreditID ledger.EventID
	LeaveID  ledger.EventID
}

func (e *CreditInUseError) Error() string {
	return fmt.Sprintf("credit %s is consumed by leave %s", e.CreditID, e.LeaveID)
}

func (e *CreditInUseError) Unwrap() error { return ErrCreditInUse }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrHolidayNotFound)
}

// IsConflict reports rule violations against the current event log.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCasualLeaveMonthTaken) ||
		errors.Is(err, ErrCreditUnavailable) ||
		errors.Is(err, ErrCreditInUse) ||
		errors.Is(err, ErrUserExists)
}

func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ledger.ErrInvalidDate) ||
		errors.Is(err, ledger.ErrInvalidKind) ||
		IsConflict(err)
}
