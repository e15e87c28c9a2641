/*
errors.go - Error taxonomy for the ledger engine

PURPOSE:
  The engine itself never fails: anomalies in an event log degrade into
  fewer or partial results plus a Warning. The sentinels below let callers
  classify warnings with errors.Is, and let the write side reuse the same
  vocabulary when it rejects input.

ERROR CATEGORIES:
  1. Reference anomalies - ErrUnresolvedReference, ErrAmbiguousConsumption
  2. State anomalies     - ErrClaimConflict, ErrInconsistentEvent
  3. Input errors        - ErrInvalidDate, ErrInvalidKind

SEE ALSO:
  - integrity.go: produces Warnings that unwrap to these sentinels
  - tracker/errors.go: write-side rule violations
*/
package ledger

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnresolvedReference: a consumed-credit or claim target id that does
	// not match any credit in the log.
	ErrUnresolvedReference = errors.New("unresolved credit reference")

	// ErrAmbiguousConsumption: two leave events reference the same credit.
	ErrAmbiguousConsumption = errors.New("credit consumed more than once")

	// ErrClaimConflict: a credit flagged claimed is also consumed.
	ErrClaimConflict = errors.New("credit both claimed and consumed")

	// ErrInconsistentEvent: an event whose fields contradict each other.
	ErrInconsistentEvent = errors.New("inconsistent event")

	ErrInvalidDate = errors.New("invalid date")
	ErrInvalidKind = errors.New("invalid event kind")
)
