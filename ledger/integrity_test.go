package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-calendar/ledger"
)

func TestCheck_CleanLog_NoWarnings(t *testing.T) {
	warnings := ledger.Check([]ledger.Event{
		casual("1", "2024-01-05"),
		extra("2", "2024-01-13"),
		leave("3", "2024-01-15", ledger.SourceCasual, "1"),
		leave("4", "2024-01-16", ledger.SourceExtra, "2"),
		leave("5", "2024-01-17", ledger.SourcePaid, ""),
	})

	assert.Empty(t, warnings)
}

func TestCheck_ReportsEveryAnomaly(t *testing.T) {
	warnings := ledger.Check(mixedLog())

	codes := make([]ledger.WarningCode, len(warnings))
	for i, w := range warnings {
		codes[i] = w.Code
	}
	// event order: 2024-02-16 duplicate, 2024-02-24 claimed+consumed, 2024-03-01 dangling
	assert.Equal(t, []ledger.WarningCode{
		ledger.WarnAmbiguousConsumption,
		ledger.WarnClaimedAndConsumed,
		ledger.WarnUnresolvedReference,
	}, codes)
}

func TestCheck_MissingReference(t *testing.T) {
	warnings := ledger.Check([]ledger.Event{leave("1", "2024-01-15", ledger.SourceExtra, "")})

	require.Len(t, warnings, 1)
	assert.Equal(t, ledger.WarnMissingReference, warnings[0].Code)
	assert.ErrorIs(t, warnings[0], ledger.ErrInconsistentEvent)
}

func TestCheck_DuplicateMonthlyCasual(t *testing.T) {
	warnings := ledger.Check([]ledger.Event{
		casual("1", "2024-01-05"),
		casual("2", "2024-01-25"),
		casual("3", "2024-02-05"),
	})

	require.Len(t, warnings, 1)
	assert.Equal(t, ledger.WarnDuplicateMonthly, warnings[0].Code)
	assert.Equal(t, ledger.EventID("2"), warnings[0].EventID)
	assert.Equal(t, ledger.EventID("1"), warnings[0].CreditID)
}

func TestWarning_IsAnError(t *testing.T) {
	var err error = ledger.Warning{Code: ledger.WarnAmbiguousConsumption, Message: "credit 1 already consumed"}

	assert.True(t, errors.Is(err, ledger.ErrAmbiguousConsumption))
	assert.Equal(t, "ambiguous_consumption: credit 1 already consumed", err.Error())
}
