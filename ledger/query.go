package ledger

import (
	"sort"
	"strings"
)

// =============================================================================
// BREAKDOWN - Per-month grouping for summary cards
// =============================================================================

type MonthBreakdown struct {
	Month        string // YYYY-MM
	CasualEarned int
	ExtraEarned  int
	ExtraClaimed int
	CasualTaken  int
	ExtraTaken   int
	PaidTaken    int
}

type Breakdown struct {
	Months []MonthBreakdown
	View   View
}

// Summarize groups credits by the month they were earned and leaves by the
// month they were taken.
func Summarize(events []Event) Breakdown {
	view := Derive(events)
	months := make(map[string]*MonthBreakdown)
	at := func(d Date) *MonthBreakdown {
		key := d.MonthKey()
		m, ok := months[key]
		if !ok {
			m = &MonthBreakdown{Month: key}
			months[key] = m
		}
		return m
	}

	for _, e := range events {
		switch e.Kind {
		case KindAddCasualLeave:
			at(e.Date).CasualEarned++
		case KindExtraDayEarned:
			at(e.Date).ExtraEarned++
		}
	}
	for _, e := range view.ClaimedExtraCredits {
		at(e.Date).ExtraClaimed++
	}
	for _, u := range view.UsedCasualCredits {
		at(u.Leave.Date).CasualTaken++
	}
	for _, u := range view.UsedExtraCredits {
		at(u.Leave.Date).ExtraTaken++
	}
	for _, e := range view.PaidLeaves {
		at(e.Date).PaidTaken++
	}

	out := Breakdown{View: view, Months: make([]MonthBreakdown, 0, len(months))}
	for _, m := range months {
		out.Months = append(out.Months, *m)
	}
	sort.Slice(out.Months, func(i, j int) bool {
		return out.Months[i].Month < out.Months[j].Month
	})
	return out
}

// =============================================================================
// DAY VIEW & SEARCH
// =============================================================================

// DayEntry is an event of a day; leaves carry the credit they consumed.
type DayEntry struct {
	Event  Event
	Credit *Event
}

// OnDate returns the events of one day in event order. The credit lookup
// spans the whole log: a leave usually consumes a credit earned on another
// day.
func OnDate(events []Event, day Date) []DayEntry {
	ordered := InEventOrder(events)
	lookup := index(ordered)

	var entries []DayEntry
	for _, e := range ordered {
		if !e.Date.Equal(day) {
			continue
		}
		entry := DayEntry{Event: e}
		if e.Debits() {
			if credit, ok := resolve(lookup, e.ConsumedCreditID); ok {
				entry.Credit = &credit
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// Search matches term case-insensitively against titles and descriptions.
// An empty term matches nothing.
func Search(events []Event, term string) []Event {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var hits []Event
	for _, e := range InEventOrder(events) {
		if strings.Contains(strings.ToLower(e.Title), term) ||
			strings.Contains(strings.ToLower(e.Description), term) {
			hits = append(hits, e)
		}
	}
	return hits
}
