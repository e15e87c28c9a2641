/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The event shape is the
  snake_case row format the web client has always read (id, user_id,
  event_date, type, leave_type, consumed_leave_id, is_month_claim), so
  existing clients keep working.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Users:     LoginRequest, LoginResponse
  Events:    EventDTO, EventRequest, ClaimRequest, UserRequest
  Ledger:    LedgerDTO, CreditUseDTO, BreakdownDTO, MonthDTO, WarningDTO
  Days:      DayDTO, DayEntryDTO
  Balance:   BalanceDTO
  Holidays:  HolidayDTO, HolidayRequest
  Scenarios: ScenarioDTO, LoadScenarioRequest

IDS:
  Clients send ids as numbers or strings (older rows were integers). FlexID
  and FlexUserID accept both.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/tracker"
)

// =============================================================================
// IDS
// =============================================================================

// FlexID is an event id sent as either 17 or "17".
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

func (id *FlexID) ref() *ledger.EventID {
	if id == nil || strings.TrimSpace(string(*id)) == "" {
		return nil
	}
	return ledger.EventID(strings.TrimSpace(string(*id))).Ref()
}

// FlexUserID is a user id sent as either 7 or "7".
type FlexUserID int64

func (id *FlexUserID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("user_id must be an integer: %w", err)
	}
	*id = FlexUserID(n)
	return nil
}

// =============================================================================
// USERS
// =============================================================================

type LoginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// =============================================================================
// EVENTS
// =============================================================================

// EventDTO is one stored event as the client reads it.
type EventDTO struct {
	ID              string  `json:"id"`
	UserID          int64   `json:"user_id"`
	EventDate       string  `json:"event_date"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	Type            string  `json:"type"`
	LeaveType       *string `json:"leave_type"`
	ConsumedLeaveID *string `json:"consumed_leave_id"`
	IsMonthClaim    bool    `json:"is_month_claim"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// EventRequest is the body of POST /events and PUT /events/{id}. A new event
// without a type is a note. On update a missing event_date or type keeps the
// stored value, and a leave naming neither leave_type nor consumed_leave_id
// keeps its credit.
type EventRequest struct {
	UserID          FlexUserID `json:"user_id"`
	EventDate       string     `json:"event_date"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Type            string     `json:"type"`
	LeaveType       string     `json:"leave_type"`
	ConsumedLeaveID *FlexID    `json:"consumed_leave_id"`
}

func (req EventRequest) input() (tracker.EventInput, error) {
	in := tracker.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Kind:        ledger.Kind(req.Type),
		LeaveSource: ledger.LeaveSource(req.LeaveType),
		CreditID:    req.ConsumedLeaveID.ref(),
	}
	if req.EventDate != "" {
		d, err := ledger.ParseDate(req.EventDate)
		if err != nil {
			return tracker.EventInput{}, err
		}
		in.Date = d
	}
	return in, nil
}

type ClaimRequest struct {
	UserID   FlexUserID `json:"user_id"`
	EventIDs []FlexID   `json:"event_ids"`
}

func (req ClaimRequest) ids() []ledger.EventID {
	out := make([]ledger.EventID, 0, len(req.EventIDs))
	for _, id := range req.EventIDs {
		out = append(out, ledger.EventID(id))
	}
	return out
}

// UserRequest is a body carrying only the acting user.
type UserRequest struct {
	UserID FlexUserID `json:"user_id"`
}

// =============================================================================
// LEDGER
// =============================================================================

type LedgerDTO struct {
	CasualEarned    int `json:"casual_earned"`
	CasualUsed      int `json:"casual_used"`
	CasualRemaining int `json:"casual_remaining"`
	ExtraEarned     int `json:"extra_earned"`
	ExtraUsed       int `json:"extra_used"`
	ExtraClaimed    int `json:"extra_claimed"`
	ExtraRemaining  int `json:"extra_remaining"`
	TotalUsed       int `json:"total_used"`
	PaidTaken       int `json:"paid_taken"`

	AvailableCasualCredits []EventDTO     `json:"available_casual_credits"`
	AvailableExtraCredits  []EventDTO     `json:"available_extra_credits"`
	UsedCasualCredits      []CreditUseDTO `json:"used_casual_credits"`
	UsedExtraCredits       []CreditUseDTO `json:"used_extra_credits"`
	ClaimedExtraCredits    []EventDTO     `json:"claimed_extra_credits"`
	PaidLeaves             []EventDTO     `json:"paid_leaves"`

	Warnings []WarningDTO `json:"warnings"`
}

// CreditUseDTO is a leave with the credit it consumed. Credit is null when
// the reference does not resolve.
type CreditUseDTO struct {
	Leave  EventDTO  `json:"leave"`
	Credit *EventDTO `json:"credit"`
}

type WarningDTO struct {
	Code     string `json:"code"`
	EventID  string `json:"event_id"`
	CreditID string `json:"credit_id,omitempty"`
	Message  string `json:"message"`
}

type BreakdownDTO struct {
	Months []MonthDTO `json:"months"`
	Totals LedgerDTO  `json:"totals"`
}

type MonthDTO struct {
	Month        string `json:"month"`
	CasualEarned int    `json:"casual_earned"`
	ExtraEarned  int    `json:"extra_earned"`
	ExtraClaimed int    `json:"extra_claimed"`
	CasualTaken  int    `json:"casual_taken"`
	ExtraTaken   int    `json:"extra_taken"`
	PaidTaken    int    `json:"paid_taken"`
}

// =============================================================================
// DAYS, BALANCE, HOLIDAYS
// =============================================================================

type DayDTO struct {
	Date    string        `json:"date"`
	Entries []DayEntryDTO `json:"entries"`
	Holiday *HolidayDTO   `json:"holiday"`
}

type DayEntryDTO struct {
	Event  EventDTO  `json:"event"`
	Credit *EventDTO `json:"credit"`
}

// BalanceDTO carries the balance as JSON numbers.
type BalanceDTO struct {
	UserID      int64       `json:"user_id"`
	CasualLeave json.Number `json:"casual_leave"`
	ExtraDays   json.Number `json:"extra_days"`
}

type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

type HolidayRequest struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// =============================================================================
// SCENARIOS, ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// ToEventDTO converts a ledger event to its wire shape.
func ToEventDTO(e ledger.Event) EventDTO {
	dto := EventDTO{
		ID:           string(e.ID),
		UserID:       int64(e.UserID),
		EventDate:    e.Date.String(),
		Title:        e.Title,
		Description:  optional(e.Description),
		Type:         string(e.Kind),
		LeaveType:    optional(string(e.LeaveSource)),
		IsMonthClaim: e.Claimed,
	}
	if e.ConsumedCreditID != nil {
		dto.ConsumedLeaveID = optional(string(*e.ConsumedCreditID))
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toEventDTOs(events []ledger.Event) []EventDTO {
	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, ToEventDTO(e))
	}
	return dtos
}

func toCreditUseDTOs(used []ledger.UsedCredit) []CreditUseDTO {
	dtos := make([]CreditUseDTO, 0, len(used))
	for _, u := range used {
		dto := CreditUseDTO{Leave: ToEventDTO(u.Leave)}
		if u.Credit != nil {
			credit := ToEventDTO(*u.Credit)
			dto.Credit = &credit
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

// ToLedgerDTO converts a derived view to its wire shape.
func ToLedgerDTO(v ledger.View) LedgerDTO {
	return LedgerDTO{
		CasualEarned:    v.CasualEarned,
		CasualUsed:      v.CasualUsed,
		CasualRemaining: v.CasualRemaining,
		ExtraEarned:     v.ExtraEarned,
		ExtraUsed:       v.ExtraUsed,
		ExtraClaimed:    v.ExtraClaimed,
		ExtraRemaining:  v.ExtraRemaining,
		TotalUsed:       v.TotalUsed,
		PaidTaken:       v.PaidTaken,

		AvailableCasualCredits: toEventDTOs(v.AvailableCasualCredits),
		AvailableExtraCredits:  toEventDTOs(v.AvailableExtraCredits),
		UsedCasualCredits:      toCreditUseDTOs(v.UsedCasualCredits),
		UsedExtraCredits:       toCreditUseDTOs(v.UsedExtraCredits),
		ClaimedExtraCredits:    toEventDTOs(v.ClaimedExtraCredits),
		PaidLeaves:             toEventDTOs(v.PaidLeaves),

		Warnings: toWarningDTOs(v.Warnings),
	}
}

func toWarningDTOs(ws []ledger.Warning) []WarningDTO {
	dtos := make([]WarningDTO, 0, len(ws))
	for _, w := range ws {
		dtos = append(dtos, WarningDTO{
			Code:     string(w.Code),
			EventID:  string(w.EventID),
			CreditID: string(w.CreditID),
			Message:  w.Message,
		})
	}
	return dtos
}

func toBreakdownDTO(b ledger.Breakdown) BreakdownDTO {
	months := make([]MonthDTO, 0, len(b.Months))
	for _, m := range b.Months {
		months = append(months, MonthDTO{
			Month:        m.Month,
			CasualEarned: m.CasualEarned,
			ExtraEarned:  m.ExtraEarned,
			ExtraClaimed: m.ExtraClaimed,
			CasualTaken:  m.CasualTaken,
			ExtraTaken:   m.ExtraTaken,
			PaidTaken:    m.PaidTaken,
		})
	}
	return BreakdownDTO{Months: months, Totals: ToLedgerDTO(b.View)}
}

func toDayDTO(d tracker.DayView) DayDTO {
	dto := DayDTO{Date: d.Date.String(), Entries: make([]DayEntryDTO, 0, len(d.Entries))}
	for _, entry := range d.Entries {
		e := DayEntryDTO{Event: ToEventDTO(entry.Event)}
		if entry.Credit != nil {
			credit := ToEventDTO(*entry.Credit)
			e.Credit = &credit
		}
		dto.Entries = append(dto.Entries, e)
	}
	if d.Holiday != nil {
		h := toHolidayDTO(*d.Holiday)
		dto.Holiday = &h
	}
	return dto
}

func toHolidayDTO(h tracker.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring}
}

// ToBalanceDTO converts a balance to its wire shape.
func ToBalanceDTO(b tracker.Balance) BalanceDTO {
	return BalanceDTO{
		UserID:      int64(b.UserID),
		CasualLeave: number(b.CasualLeave),
		ExtraDays:   number(b.ExtraDays),
	}
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
