/*
Package transfer reads and writes the leave calendar backup document.

PURPOSE:
  A user's whole calendar (event log plus starting balance) as one JSON
  file, so it can be downloaded, edited and loaded back. The format is the
  one the web client has always produced, so old backups keep loading.

JSON SCHEMA:
  {
    "events": {
      "2024-01-05": [
        {"id": 1, "title": "Jan casual", "type": "addCasualLeave", "date": "2024-01-05"}
      ],
      "2024-01-15": [
        {"id": 2, "title": "Off", "type": "leave", "leaveType": "casual", "consumedLeaveId": 1}
      ]
    },
    "leaveBalance": {"casualLeave": 12, "extraDays": 0}
  }

  - Map keys are the event dates; a "date" field inside an event is ignored.
  - Ids and consumedLeaveId may be JSON numbers or strings.
  - "isMonthClaim" marks a claimed extra day.
  - A missing leaveBalance (or field) defaults to 12 casual / 0 extra.

PASS-THROUGH:
  Decode checks shape only (dates, kinds, leave types). It does not apply
  the write rules: a document may contain dangling or duplicate credit
  references, and the ledger reports them as warnings after import.

SEE ALSO:
  - tracker/service.go: Export / Import
  - ledger/types.go: Event
*/
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-calendar/ledger"
)

var (
	DefaultCasualLeave = decimal.NewFromInt(12)
	DefaultExtraDays   = decimal.Zero
)

var ErrMalformedDocument = errors.New("malformed document")

// Document is a decoded backup.
type Document struct {
	Events      []ledger.Event
	CasualLeave decimal.Decimal
	ExtraDays   decimal.Decimal
}

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type documentJSON struct {
	Events       map[string][]eventJSON `json:"events"`
	LeaveBalance *balanceJSON           `json:"leaveBalance,omitempty"`
}

type balanceJSON struct {
	CasualLeave *decimal.Decimal `json:"casualLeave,omitempty"`
	ExtraDays   *decimal.Decimal `json:"extraDays,omitempty"`
}

// balanceOut writes amounts as JSON numbers, the way the web client does.
type balanceOut struct {
	CasualLeave json.Number `json:"casualLeave"`
	ExtraDays   json.Number `json:"extraDays"`
}

type documentOut struct {
	Events       map[string][]eventJSON `json:"events"`
	LeaveBalance balanceOut             `json:"leaveBalance"`
}

type eventJSON struct {
	ID              flexID  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Type            string  `json:"type"`
	LeaveType       string  `json:"leaveType,omitempty"`
	ConsumedLeaveID *flexID `json:"consumedLeaveId,omitempty"`
	IsMonthClaim    bool    `json:"isMonthClaim,omitempty"`
	Date            string  `json:"date,omitempty"`
}

// flexID accepts both 17 and "17". Integer ids are written back as numbers.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = flexID(n.String())
	return nil
}

func (id flexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// =============================================================================
// DECODE / ENCODE
// =============================================================================

// Decode parses a backup document. Events are returned in event order.
func Decode(r io.Reader) (Document, error) {
	var dj documentJSON
	if err := json.NewDecoder(r).Decode(&dj); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	doc := Document{CasualLeave: DefaultCasualLeave, ExtraDays: DefaultExtraDays}
	if dj.LeaveBalance != nil {
		if dj.LeaveBalance.CasualLeave != nil {
			doc.CasualLeave = *dj.LeaveBalance.CasualLeave
		}
		if dj.LeaveBalance.ExtraDays != nil {
			doc.ExtraDays = *dj.LeaveBalance.ExtraDays
		}
	}
	if doc.CasualLeave.IsNegative() || doc.ExtraDays.IsNegative() {
		return Document{}, fmt.Errorf("%w: leaveBalance must not be negative", ErrMalformedDocument)
	}

	for key, list := range dj.Events {
		date, err := ledger.ParseDate(key)
		if err != nil {
			return Document{}, fmt.Errorf("%w: events key %q: %w", ErrMalformedDocument, key, err)
		}
		for _, ej := range list {
			e, err := ej.toEvent(date)
			if err != nil {
				return Document{}, fmt.Errorf("%w: event %q on %s: %w", ErrMalformedDocument, ej.ID, key, err)
			}
			doc.Events = append(doc.Events, e)
		}
	}
	doc.Events = ledger.InEventOrder(doc.Events)
	return doc, nil
}

func (ej eventJSON) toEvent(date ledger.Date) (ledger.Event, error) {
	kind := ledger.Kind(ej.Type)
	if !kind.Valid() {
		return ledger.Event{}, fmt.Errorf("%w: %q", ledger.ErrInvalidKind, ej.Type)
	}
	source := ledger.LeaveSource(ej.LeaveType)
	if source != "" && !source.Valid() {
		return ledger.Event{}, fmt.Errorf("unknown leaveType %q", ej.LeaveType)
	}

	e := ledger.Event{
		ID:          ledger.EventID(ej.ID),
		Date:        date,
		Title:       ej.Title,
		Description: ej.Description,
		Kind:        kind,
		LeaveSource: source,
		Claimed:     ej.IsMonthClaim,
	}
	if ej.ConsumedLeaveID != nil && *ej.ConsumedLeaveID != "" {
		e.ConsumedCreditID = ledger.EventID(*ej.ConsumedLeaveID).Ref()
	}
	return e.Normalize(), nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	out := documentOut{
		Events: make(map[string][]eventJSON),
		LeaveBalance: balanceOut{
			CasualLeave: json.Number(doc.CasualLeave.String()),
			ExtraDays:   json.Number(doc.ExtraDays.String()),
		},
	}
	for _, e := range ledger.InEventOrder(doc.Events) {
		key := e.Date.String()
		ej := eventJSON{
			ID:           flexID(e.ID),
			Title:        e.Title,
			Description:  e.Description,
			Type:         string(e.Kind),
			LeaveType:    string(e.LeaveSource),
			IsMonthClaim: e.Claimed,
			Date:         key,
		}
		if e.ConsumedCreditID != nil {
			ref := flexID(*e.ConsumedCreditID)
			ej.ConsumedLeaveID = &ref
		}
		out.Events[key] = append(out.Events[key], ej)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// =============================================================================
// REMAP
// =============================================================================

// Remap gives every event a fresh id from newID and rewrites credit
// references to match. With duplicated ids, references follow the first
// event in event order, as the ledger does. Dangling references are kept.
func Remap(events []ledger.Event, newID func() ledger.EventID) []ledger.Event {
	out := ledger.InEventOrder(events)
	mapping := make(map[ledger.EventID]ledger.EventID, len(out))
	for i := range out {
		id := newID()
		if _, seen := mapping[out[i].ID]; !seen {
			mapping[out[i].ID] = id
		}
		out[i].ID = id
	}
	for i := range out {
		ref := out[i].ConsumedCreditID
		if ref == nil {
			continue
		}
		if to, ok := mapping[*ref]; ok {
			out[i].ConsumedCreditID = to.Ref()
		}
	}
	return out
}
