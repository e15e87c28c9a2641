package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-calendar/ledger"
)

func TestPlanClaim_SkipsEverythingButFreeExtraDays(t *testing.T) {
	events := []ledger.Event{
		casual("1", "2024-01-05"),
		extra("2", "2024-01-13"),
		extra("3", "2024-01-20"),
		claimedExtra("4", "2024-01-27"),
		leave("5", "2024-02-01", ledger.SourceExtra, "3"),
		note("6", "2024-02-02", "note"),
	}

	planned := ledger.PlanClaim(events, []ledger.EventID{"1", "2", "3", "4", "5", "6", "999"})

	assert.Equal(t, []ledger.EventID{"2"}, planned)
}

func TestPlanClaim_DeduplicatesAndKeepsRequestOrder(t *testing.T) {
	events := []ledger.Event{extra("2", "2024-01-13"), extra("3", "2024-01-20")}

	planned := ledger.PlanClaim(events, []ledger.EventID{"3", "2", "3", "2"})

	assert.Equal(t, []ledger.EventID{"3", "2"}, planned)
}

func TestPlanClaim_EmptyRequest(t *testing.T) {
	assert.Empty(t, ledger.PlanClaim([]ledger.Event{extra("2", "2024-01-13")}, nil))
}

func TestApplyClaim_Idempotent(t *testing.T) {
	// GIVEN: a claimed extra day
	// WHEN: claiming it again
	// THEN: nothing changes and the affected count is zero
	events := []ledger.Event{extra("2", "2024-01-13"), extra("3", "2024-01-20")}

	once, first := ledger.ApplyClaim(events, []ledger.EventID{"2"})
	twice, second := ledger.ApplyClaim(once, []ledger.EventID{"2"})

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
	assert.Equal(t, once, twice)

	v := ledger.Derive(twice)
	assert.Equal(t, 1, v.ExtraClaimed)
	assert.Equal(t, 1, v.ExtraRemaining)
}

func TestApplyClaim_ClaimThenConsumeStillBalances(t *testing.T) {
	// A claimed credit later referenced by a leave flips to used.
	events, _ := ledger.ApplyClaim([]ledger.Event{extra("2", "2024-01-13")}, []ledger.EventID{"2"})
	events = append(events, leave("3", "2024-02-01", ledger.SourceExtra, "2"))

	v := ledger.Derive(events)

	assert.Equal(t, 1, v.ExtraUsed)
	assert.Equal(t, 0, v.ExtraClaimed)
	assertClosure(t, v)
}
