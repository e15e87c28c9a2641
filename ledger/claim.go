package ledger

// =============================================================================
// CLAIM - Administrative settlement of extra days
// =============================================================================

// PlanClaim returns the ids, deduplicated and in request order, whose claim
// would change state: ids of extra-day credits that are neither consumed nor
// already claimed. Everything else is skipped silently, so the length of the
// result is the affected count reported back to the caller.
func PlanClaim(events []Event, ids []EventID) []EventID {
	ordered := InEventOrder(events)
	lookup := index(ordered)
	consumedBy := consumptions(ordered, lookup)

	seen := make(map[EventID]bool, len(ids))
	var planned []EventID
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		e, ok := lookup[id]
		if !ok || e.Kind != KindExtraDayEarned || e.Claimed {
			continue
		}
		if _, used := consumedBy[id]; used {
			continue
		}
		planned = append(planned, id)
	}
	return planned
}

// ApplyClaim returns a copy of events with the claim applied and the number
// of events it changed.
func ApplyClaim(events []Event, ids []EventID) ([]Event, int) {
	planned := PlanClaim(events, ids)
	targets := make(map[EventID]bool, len(planned))
	for _, id := range planned {
		targets[id] = true
	}

	out := make([]Event, len(events))
	copy(out, events)
	for i := range out {
		if targets[out[i].ID] {
			out[i].Claimed = true
			delete(targets, out[i].ID)
		}
	}
	return out, len(planned)
}
