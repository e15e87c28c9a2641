package ledger

import "fmt"

// =============================================================================
// INTEGRITY WARNINGS
// =============================================================================
// The derivation tolerates malformed logs. Check reports what it tolerated so
// callers can surface it; it never changes the View.

type WarningCode string

const (
	WarnUnresolvedReference  WarningCode = "unresolved_reference"
	WarnAmbiguousConsumption WarningCode = "ambiguous_consumption"
	WarnClaimedAndConsumed   WarningCode = "claimed_and_consumed"
	WarnSourceMismatch       WarningCode = "source_mismatch"
	WarnMissingReference     WarningCode = "missing_reference"
	WarnDuplicateMonthly     WarningCode = "duplicate_monthly_casual"
)

// Warning describes one anomaly found in an event log.
type Warning struct {
	Code     WarningCode
	EventID  EventID // the event carrying the anomaly
	CreditID EventID // the credit involved, if any
	Message  string
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

func (w Warning) Unwrap() error {
	switch w.Code {
	case WarnUnresolvedReference:
		return ErrUnresolvedReference
	case WarnAmbiguousConsumption:
		return ErrAmbiguousConsumption
	case WarnClaimedAndConsumed:
		return ErrClaimConflict
	default:
		return ErrInconsistentEvent
	}
}

// Check lists the anomalies of an event log, in event order.
func Check(events []Event) []Warning {
	ordered := InEventOrder(events)
	lookup := index(ordered)
	return check(ordered, lookup, consumptions(ordered, lookup))
}

func check(ordered []Event, lookup map[EventID]Event, consumedBy map[EventID]EventID) []Warning {
	var warnings []Warning
	casualMonths := make(map[string]EventID)

	for _, e := range ordered {
		switch e.Kind {
		case KindAddCasualLeave:
			month := e.Date.MonthKey()
			if first, seen := casualMonths[month]; seen {
				warnings = append(warnings, Warning{
					Code:     WarnDuplicateMonthly,
					EventID:  e.ID,
					CreditID: first,
					Message:  fmt.Sprintf("second casual leave credit in %s (first: %s)", month, first),
				})
			} else {
				casualMonths[month] = e.ID
			}

		case KindExtraDayEarned:
			if _, used := consumedBy[e.ID]; used && e.Claimed {
				warnings = append(warnings, Warning{
					Code:     WarnClaimedAndConsumed,
					EventID:  e.ID,
					CreditID: e.ID,
					Message:  fmt.Sprintf("extra day %s is flagged claimed but consumed by %s; counted as used", e.ID, consumedBy[e.ID]),
				})
			}

		case KindLeaveTaken:
			if !e.Debits() {
				continue
			}
			if e.ConsumedCreditID == nil {
				warnings = append(warnings, Warning{
					Code:    WarnMissingReference,
					EventID: e.ID,
					Message: fmt.Sprintf("%s leave %s does not reference a credit", e.LeaveSource, e.ID),
				})
				continue
			}
			ref := *e.ConsumedCreditID
			credit, ok := resolve(lookup, &ref)
			if !ok {
				msg := fmt.Sprintf("leave %s references unknown credit %s", e.ID, ref)
				if target, exists := lookup[ref]; exists {
					msg = fmt.Sprintf("leave %s references %s event %s, which earns no credit", e.ID, target.Kind, ref)
				}
				warnings = append(warnings, Warning{
					Code:     WarnUnresolvedReference,
					EventID:  e.ID,
					CreditID: ref,
					Message:  msg,
				})
				continue
			}
			if winner := consumedBy[credit.ID]; winner != e.ID {
				warnings = append(warnings, Warning{
					Code:     WarnAmbiguousConsumption,
					EventID:  e.ID,
					CreditID: credit.ID,
					Message:  fmt.Sprintf("credit %s already consumed by %s; leave %s ignored for accounting", credit.ID, winner, e.ID),
				})
			}
			if pool, _ := SourceFor(credit.Kind); pool != e.LeaveSource {
				warnings = append(warnings, Warning{
					Code:     WarnSourceMismatch,
					EventID:  e.ID,
					CreditID: credit.ID,
					Message:  fmt.Sprintf("leave %s is recorded as %s but consumes a %s credit", e.ID, e.LeaveSource, pool),
				})
			}
		}
	}
	return warnings
}
