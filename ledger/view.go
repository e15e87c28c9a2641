/*
view.go - Derived read model of a user's credits

PURPOSE:
  Derive turns the raw event log into a View: counts and credit lists for
  casual leave and extra days. Nothing here is persisted; every query
  recomputes the View from the complete log, so there are no counters that
  can drift from the events they summarize.

ALGORITHM:
  1. Put events in canonical event order (date, then id). The result does
     not depend on the order the store returned them in.
  2. Build an id -> event lookup table.
  3. Map each credit to the first leave (in event order) that consumes it.
  4. Walk the log once:
       addCasualLeave -> used if consumed, else available
       extraDay       -> used if consumed, else claimed if flagged,
                         else available (consumption wins over claim)
       leave          -> paid, or a used entry annotated with its credit
  5. Totals are computed from the sets above.

ACCOUNTING CLOSURE:
  CasualEarned = CasualUsed + CasualRemaining
  ExtraEarned  = ExtraUsed + ExtraClaimed + ExtraRemaining
  Each credit lands in exactly one of available / used / claimed.

SEE ALSO:
  - integrity.go: warnings attached to the View
  - claim.go: uses the same consumption map
*/
package ledger

import "sort"

// =============================================================================
// VIEW
// =============================================================================

// View is the fully derived ledger state of one event log.
type View struct {
	CasualEarned    int
	CasualUsed      int
	CasualRemaining int

	ExtraEarned    int
	ExtraUsed      int
	ExtraClaimed   int
	ExtraRemaining int

	TotalUsed int
	PaidTaken int

	AvailableCasualCredits []Event
	AvailableExtraCredits  []Event
	UsedCasualCredits      []UsedCredit
	UsedExtraCredits       []UsedCredit
	ClaimedExtraCredits    []Event
	PaidLeaves             []Event

	Warnings []Warning

	consumedBy map[EventID]EventID
	claimed    map[EventID]bool
	credits    map[EventID]Event
}

// UsedCredit is a leave event annotated with the credit it consumed.
// Credit is nil when the reference does not resolve.
type UsedCredit struct {
	Leave  Event
	Credit *Event
}

type CreditStatus string

const (
	CreditAvailable CreditStatus = "available"
	CreditUsed      CreditStatus = "used"
	CreditClaimed   CreditStatus = "claimed"
	CreditUnknown   CreditStatus = "unknown"
)

// Derive computes the View of an event log. The input is not modified and
// may be in any order.
func Derive(events []Event) View {
	ordered := InEventOrder(events)
	lookup := index(ordered)
	consumedBy := consumptions(ordered, lookup)

	v := View{
		consumedBy: consumedBy,
		claimed:    make(map[EventID]bool),
		credits:    make(map[EventID]Event),
	}

	for _, e := range ordered {
		switch e.Kind {
		case KindAddCasualLeave:
			v.remember(e)
			v.CasualEarned++
			if _, used := consumedBy[e.ID]; used {
				v.CasualUsed++
			} else {
				v.AvailableCasualCredits = append(v.AvailableCasualCredits, e)
			}

		case KindExtraDayEarned:
			v.remember(e)
			v.ExtraEarned++
			_, used := consumedBy[e.ID]
			switch {
			case used:
				v.ExtraUsed++
			case e.Claimed:
				v.ExtraClaimed++
				v.claimed[e.ID] = true
				v.ClaimedExtraCredits = append(v.ClaimedExtraCredits, e)
			default:
				v.AvailableExtraCredits = append(v.AvailableExtraCredits, e)
			}

		case KindLeaveTaken:
			if !e.Debits() {
				v.PaidTaken++
				v.PaidLeaves = append(v.PaidLeaves, e)
				continue
			}
			entry := UsedCredit{Leave: e}
			pool := e.LeaveSource
			if credit, ok := resolve(lookup, e.ConsumedCreditID); ok {
				entry.Credit = &credit
				pool, _ = SourceFor(credit.Kind)
			}
			if pool == SourceExtra {
				v.UsedExtraCredits = append(v.UsedExtraCredits, entry)
			} else {
				v.UsedCasualCredits = append(v.UsedCasualCredits, entry)
			}
		}
	}

	v.CasualRemaining = v.CasualEarned - v.CasualUsed
	v.ExtraRemaining = v.ExtraEarned - v.ExtraUsed - v.ExtraClaimed
	v.TotalUsed = v.CasualUsed + v.ExtraUsed
	v.Warnings = check(ordered, lookup, consumedBy)
	return v
}

// AvailableCredits lists every credit that a new leave may consume, extra
// days first, then casual leave, each in event order.
func (v View) AvailableCredits() []Event {
	out := make([]Event, 0, len(v.AvailableExtraCredits)+len(v.AvailableCasualCredits))
	out = append(out, v.AvailableExtraCredits...)
	return append(out, v.AvailableCasualCredits...)
}

// DefaultCredit is the credit to pre-select for a new leave.
func (v View) DefaultCredit() (Event, bool) {
	if len(v.AvailableExtraCredits) > 0 {
		return v.AvailableExtraCredits[0], true
	}
	if len(v.AvailableCasualCredits) > 0 {
		return v.AvailableCasualCredits[0], true
	}
	return Event{}, false
}

// Credit returns the earning event with the given id.
func (v View) Credit(id EventID) (Event, bool) {
	e, ok := v.credits[id]
	return e, ok
}

// Status reports which bucket a credit is in.
func (v View) Status(id EventID) CreditStatus {
	if _, ok := v.credits[id]; !ok {
		return CreditUnknown
	}
	if _, used := v.consumedBy[id]; used {
		return CreditUsed
	}
	if v.claimed[id] {
		return CreditClaimed
	}
	return CreditAvailable
}

// ConsumedBy returns the leave event that consumes the credit.
func (v View) ConsumedBy(id EventID) (EventID, bool) {
	leave, ok := v.consumedBy[id]
	return leave, ok
}

// IsAvailable reports whether a credit may be consumed by a new leave.
func (v View) IsAvailable(id EventID) bool {
	return v.Status(id) == CreditAvailable
}

// =============================================================================
// DERIVATION HELPERS
// =============================================================================

// remember records a credit for lookup. Like index, the first event with a
// given id wins so Credit and resolve agree on duplicates.
func (v View) remember(e Event) {
	if _, dup := v.credits[e.ID]; !dup {
		v.credits[e.ID] = e
	}
}

// InEventOrder returns a copy of events sorted by date, then id.
func InEventOrder(events []Event) []Event {
	ordered := make([]Event, len(events))
	for i, e := range events {
		ordered[i] = e.Normalize()
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].before(ordered[j])
	})
	return ordered
}

// index builds the id lookup table. With duplicated ids the first event in
// order wins.
func index(ordered []Event) map[EventID]Event {
	lookup := make(map[EventID]Event, len(ordered))
	for _, e := range ordered {
		if _, dup := lookup[e.ID]; !dup {
			lookup[e.ID] = e
		}
	}
	return lookup
}

func resolve(lookup map[EventID]Event, ref *EventID) (Event, bool) {
	if ref == nil {
		return Event{}, false
	}
	e, ok := lookup[*ref]
	if !ok || !e.IsCredit() {
		return Event{}, false
	}
	return e, true
}

// consumptions maps each consumed credit to the first leave referencing it.
func consumptions(ordered []Event, lookup map[EventID]Event) map[EventID]EventID {
	consumedBy := make(map[EventID]EventID)
	for _, e := range ordered {
		if !e.Debits() {
			continue
		}
		credit, ok := resolve(lookup, e.ConsumedCreditID)
		if !ok {
			continue
		}
		if _, taken := consumedBy[credit.ID]; taken {
			continue
		}
		consumedBy[credit.ID] = e.ID
	}
	return consumedBy
}
