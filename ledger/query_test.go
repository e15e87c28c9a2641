package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-calendar/ledger"
)

func TestSummarize_GroupsByMonth(t *testing.T) {
	b := ledger.Summarize(mixedLog())

	require.Len(t, b.Months, 3)
	jan, feb, mar := b.Months[0], b.Months[1], b.Months[2]

	assert.Equal(t, "2024-01", jan.Month)
	assert.Equal(t, 1, jan.CasualEarned)
	assert.Equal(t, 2, jan.ExtraEarned)
	assert.Equal(t, 1, jan.ExtraClaimed)

	assert.Equal(t, "2024-02", feb.Month)
	assert.Equal(t, 2, feb.ExtraEarned)
	assert.Equal(t, 2, feb.CasualTaken) // leaves 8 and 12
	assert.Equal(t, 2, feb.ExtraTaken)  // leaves 9 and 10
	assert.Equal(t, 1, feb.PaidTaken)

	assert.Equal(t, "2024-03", mar.Month)
	assert.Equal(t, 1, mar.CasualEarned)
	assert.Equal(t, 1, mar.CasualTaken) // dangling leave 13, bucketed by its declared source

	assert.Equal(t, ledger.Derive(mixedLog()).CasualEarned, b.View.CasualEarned)
}

func TestOnDate_AnnotatesAcrossDates(t *testing.T) {
	events := []ledger.Event{
		casual("1", "2024-01-05"),
		leave("2", "2024-02-10", ledger.SourceCasual, "1"),
		note("3", "2024-02-10", "Flight"),
		note("4", "2024-02-11", "Other day"),
	}

	entries := ledger.OnDate(events, ledger.NewDate(2024, time.February, 10))

	require.Len(t, entries, 2)
	assert.Equal(t, ledger.EventID("2"), entries[0].Event.ID)
	require.NotNil(t, entries[0].Credit)
	assert.Equal(t, ledger.EventID("1"), entries[0].Credit.ID)
	assert.Nil(t, entries[1].Credit)
}

func TestSearch_TitleAndDescription(t *testing.T) {
	withDescription := note("3", "2024-01-03", "Appointment")
	withDescription.Description = "Dentist at 10"
	events := []ledger.Event{
		note("1", "2024-01-01", "Dentist"),
		note("2", "2024-01-02", "Gym"),
		withDescription,
	}

	assert.Equal(t, []ledger.EventID{"1", "3"}, ids(ledger.Search(events, "  dENTist ")))
	assert.Empty(t, ledger.Search(events, ""))
}

func TestParseDate(t *testing.T) {
	d, err := ledger.ParseDate("2024-01-05T00:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", d.String())
	assert.Equal(t, "2024-01", d.MonthKey())

	_, err = ledger.ParseDate("05/01/2024")
	assert.ErrorIs(t, err, ledger.ErrInvalidDate)
}
