/*
Package ledger provides the leave-credit accounting engine.

PURPOSE:
  Derives, from a user's log of dated calendar events, how many casual-leave
  and extra-day credits were earned, which credit instances are still
  available, which were consumed by a leave and which were claimed
  (settled outside the normal consumption path).

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: one dated entry of the calendar log
  - Kind: closed set of event variants (note, casual earned, extra earned, leave)
  - LeaveSource: which credit pool a leave debited (or paid, none)
  - EventID / UserID: identifiers

DESIGN PRINCIPLES:
  1. Pure: nothing in this package performs I/O or keeps state
  2. Recompute: every query derives its view from the full event log
  3. Degrade, don't fail: malformed logs yield warnings, never errors

USAGE:
  view := ledger.Derive(events)
  fmt.Println(view.CasualRemaining, view.ExtraRemaining)

  ids := ledger.PlanClaim(events, []ledger.EventID{"7", "9"})

SEE ALSO:
  - view.go: Derive and the View read model
  - claim.go: claim planning
  - integrity.go: anomaly detection
*/
package ledger

import (
	"strconv"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EventID string

type UserID int64

// Less orders ids numerically when both are integers (imported logs use
// numeric ids), otherwise lexically. Numeric ids sort before the others.
func (id EventID) Less(other EventID) bool {
	a, errA := strconv.ParseInt(string(id), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	switch {
	case errA == nil && errB == nil:
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return id < other
	}
}

// Ref returns a pointer to a copy of id, for ConsumedCreditID fields.
func (id EventID) Ref() *EventID { return &id }

// =============================================================================
// KIND - Closed set of event variants
// =============================================================================

type Kind string

const (
	KindNote           Kind = "note"           // No ledger effect
	KindAddCasualLeave Kind = "addCasualLeave" // Earns one casual-leave credit
	KindExtraDayEarned Kind = "extraDay"       // Earns one extra-day credit
	KindLeaveTaken     Kind = "leave"          // Consumes a credit, or is paid
)

var kinds = []Kind{KindNote, KindAddCasualLeave, KindExtraDayEarned, KindLeaveTaken}

// Kinds returns every known kind.
func Kinds() []Kind { return append([]Kind(nil), kinds...) }

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Earns reports whether events of this kind create a credit.
func (k Kind) Earns() bool {
	return k == KindAddCasualLeave || k == KindExtraDayEarned
}

// =============================================================================
// LEAVE SOURCE
// =============================================================================

type LeaveSource string

const (
	SourcePaid   LeaveSource = "paid"
	SourceCasual LeaveSource = "casual"
	SourceExtra  LeaveSource = "extra"
)

func (s LeaveSource) Valid() bool {
	return s == SourcePaid || s == SourceCasual || s == SourceExtra
}

// Debits reports whether a leave of this source consumes a credit.
func (s LeaveSource) Debits() bool {
	return s == SourceCasual || s == SourceExtra
}

// SourceFor returns the pool a credit of the given kind belongs to.
func SourceFor(k Kind) (LeaveSource, bool) {
	switch k {
	case KindAddCasualLeave:
		return SourceCasual, true
	case KindExtraDayEarned:
		return SourceExtra, true
	default:
		return "", false
	}
}

// =============================================================================
// EVENT - Atomic ledger entry
// =============================================================================

// Event is one entry of a user's calendar log.
//
// Payload fields are only meaningful for their kind:
//   - LeaveSource, ConsumedCreditID: KindLeaveTaken
//   - ConsumedCreditID: only when LeaveSource debits a pool
//   - Claimed: KindExtraDayEarned
//
// Normalize clears the fields that do not apply.
type Event struct {
	ID          EventID
	UserID      UserID
	Date        Date
	Title       string
	Description string
	Kind        Kind

	LeaveSource      LeaveSource
	ConsumedCreditID *EventID
	Claimed          bool

	CreatedAt time.Time
}

// Normalize returns a copy of e with payload fields that are invalid for its
// kind cleared. A leave without a source is paid unless it references a
// credit, in which case it is treated as casual until resolved.
func (e Event) Normalize() Event {
	if e.Kind != KindLeaveTaken {
		e.LeaveSource = ""
		e.ConsumedCreditID = nil
	}
	if e.Kind != KindExtraDayEarned {
		e.Claimed = false
	}
	if e.Kind == KindLeaveTaken {
		if e.LeaveSource == "" {
			if e.ConsumedCreditID != nil {
				e.LeaveSource = SourceCasual
			} else {
				e.LeaveSource = SourcePaid
			}
		}
		if !e.LeaveSource.Debits() {
			e.ConsumedCreditID = nil
		}
	}
	if e.ConsumedCreditID != nil {
		ref := *e.ConsumedCreditID
		e.ConsumedCreditID = &ref
	}
	return e
}

// IsCredit reports whether e earns a credit.
func (e Event) IsCredit() bool { return e.Kind.Earns() }

// Debits reports whether e is a leave that draws on a credit pool.
func (e Event) Debits() bool {
	return e.Kind == KindLeaveTaken && e.LeaveSource.Debits()
}

// before is the canonical event order: by date, then by id.
func (e Event) before(other Event) bool {
	if !e.Date.Equal(other.Date) {
		return e.Date.Before(other.Date)
	}
	return e.ID.Less(other.ID)
}
