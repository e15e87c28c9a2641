/*
handlers_test.go - HTTP tests for the leave calendar API

Runs the full router against an in-memory SQLite store:
- Login and the event CRUD the web client uses
- Rule violations mapped to 409, missing data to 404, bad input to 400
- Claim, clear, balance, ledger and day views
- Export/import round trip
- Holidays, metrics and CORS wiring
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/metrics"
	"github.com/warp/leave-calendar/store/sqlite"
	"github.com/warp/leave-calendar/tracker"
)

type testServer struct {
	t      *testing.T
	h      *Handler
	router http.Handler
	user   ledger.UserID
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	m := metrics.New()
	svc := tracker.NewService(store, tracker.WithObserver(m), tracker.WithLogger(log))
	u, err := svc.Register(context.Background(), "ana@example.com", "Ana")
	require.NoError(t, err)

	h := NewHandler(svc, log)
	return &testServer{
		t:      t,
		h:      h,
		router: NewRouter(h, RouterOptions{AllowedOrigins: []string{"http://localhost:5173"}, Metrics: m}),
		user:   u.ID,
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) query(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%suser_id=%d", path, sep, s.user)
}

// create posts an event and returns its id.
func (s *testServer) create(date, title, kind string, extra map[string]any) string {
	s.t.Helper()
	body := map[string]any{"user_id": s.user, "event_date": date, "title": title, "type": kind}
	for k, v := range extra {
		body[k] = v
	}
	rec := s.do(http.MethodPost, "/events", body)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		EventID string `json:"event_id"`
	}
	decode(s.t, rec, &resp)
	require.True(s.t, resp.Success)
	return resp.EventID
}

func (s *testServer) ledger() LedgerDTO {
	s.t.Helper()
	rec := s.do(http.MethodGet, s.query("/ledger"), nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var v LedgerDTO
	decode(s.t, rec, &v)
	return v
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// =============================================================================
// USERS
// =============================================================================

func TestLogin(t *testing.T) {
	// GIVEN: A registered user
	// WHEN: Logging in with matching and non-matching credentials
	// THEN: Known user gets its id, unknown gets 401, missing fields 400

	s := setupTestServer(t)

	rec := s.do(http.MethodPost, "/login", LoginRequest{Email: "ANA@example.com", Name: "Ana"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(s.user), resp.UserID)
	assert.Equal(t, "ana@example.com", resp.Email)

	rec = s.do(http.MethodPost, "/login", LoginRequest{Email: "ana@example.com", Name: "Bob"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/login", LoginRequest{Email: "ana@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	// GIVEN: A server whose store is open, then closed
	// WHEN: Calling GET /health
	// THEN: 200 while the store answers, 503 after it is closed

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	router := NewRouter(NewHandler(tracker.NewService(store), log), RouterOptions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.NoError(t, store.Close())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"down"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"method":"GET"`)
}

// =============================================================================
// EVENTS
// =============================================================================

func TestEvents_CreateAndList(t *testing.T) {
	// GIVEN: A casual credit and a note on different days
	// WHEN: Listing events
	// THEN: Rows come back newest first in the snake_case shape

	s := setupTestServer(t)
	credit := s.create("2024-01-05", "January casual", "addCasualLeave", nil)
	s.create("2024-02-10", "Dentist", "note", map[string]any{"description": "10am"})

	rec := s.do(http.MethodGet, s.query("/events"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []EventDTO
	decode(t, rec, &events)
	require.Len(t, events, 2)
	assert.Equal(t, "2024-02-10", events[0].EventDate)
	assert.Equal(t, "note", events[0].Type)
	require.NotNil(t, events[0].Description)
	assert.Equal(t, "10am", *events[0].Description)
	assert.Equal(t, credit, events[1].ID)
	assert.Nil(t, events[1].LeaveType)
	assert.False(t, events[1].IsMonthClaim)
}

func TestCreateEvent_LeaveConsumesCredit(t *testing.T) {
	// GIVEN: A casual credit
	// WHEN: Posting a leave that names it with a numeric-looking id field
	// THEN: The ledger shows it used and annotated with the credit

	s := setupTestServer(t)
	credit := s.create("2024-01-05", "January casual", "addCasualLeave", nil)
	s.create("2024-01-15", "Off", "leave", map[string]any{"leave_type": "casual", "consumed_leave_id": credit})

	v := s.ledger()

	assert.Equal(t, 1, v.CasualEarned)
	assert.Equal(t, 1, v.CasualUsed)
	assert.Equal(t, 0, v.CasualRemaining)
	assert.Empty(t, v.AvailableCasualCredits)
	require.Len(t, v.UsedCasualCredits, 1)
	require.NotNil(t, v.UsedCasualCredits[0].Credit)
	assert.Equal(t, credit, v.UsedCasualCredits[0].Credit.ID)
}

func TestCreateEvent_Errors(t *testing.T) {
	s := setupTestServer(t)
	credit := s.create("2024-01-05", "January casual", "addCasualLeave", nil)
	s.create("2024-01-15", "Off", "leave", map[string]any{"consumed_leave_id": credit})

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"not json", "{", http.StatusBadRequest, ""},
		{"no user", map[string]any{"event_date": "2024-03-01", "title": "x"}, http.StatusBadRequest, ""},
		{"bad date", map[string]any{"user_id": s.user, "event_date": "01/03/2024", "title": "x"}, http.StatusBadRequest, ""},
		{"no title", map[string]any{"user_id": s.user, "event_date": "2024-03-01", "title": " "}, http.StatusBadRequest, "invalid_input"},
		{"unknown type", map[string]any{"user_id": s.user, "event_date": "2024-03-01", "title": "x", "type": "vacation"}, http.StatusBadRequest, "invalid_input"},
		{
			"second casual in month",
			map[string]any{"user_id": s.user, "event_date": "2024-01-20", "title": "x", "type": "addCasualLeave"},
			http.StatusConflict, "casual_leave_month_taken",
		},
		{
			"credit already used",
			map[string]any{"user_id": s.user, "event_date": "2024-01-22", "title": "x", "type": "leave", "consumed_leave_id": credit},
			http.StatusConflict, "credit_unavailable",
		},
		{
			"unknown user",
			map[string]any{"user_id": 999, "event_date": "2024-03-01", "title": "x"},
			http.StatusNotFound, "not_found",
		},
		{
			"empty pool",
			map[string]any{"user_id": fmt.Sprint(s.user), "event_date": "2024-01-22", "title": "x", "type": "leave", "leave_type": "extra"},
			http.StatusConflict, "credit_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/events", tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			var resp ErrorResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	// GIVEN: A note
	// WHEN: Updating its title without sending a date
	// THEN: The title changes and the date is kept

	s := setupTestServer(t)
	id := s.create("2024-03-01", "Dentist", "note", nil)

	rec := s.do(http.MethodPut, "/events/"+id, map[string]any{"user_id": s.user, "title": "Dentist 2pm", "type": "note"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Event EventDTO `json:"event"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Dentist 2pm", resp.Event.Title)
	assert.Equal(t, "2024-03-01", resp.Event.EventDate)

	// Another user's id looks like a missing event.
	rec = s.do(http.MethodPut, "/events/"+id, map[string]any{"user_id": s.user + 1, "title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateEvent_LeaveKeepsCredit(t *testing.T) {
	// GIVEN: A leave consuming a casual credit, and an unused extra day
	// WHEN: Editing the leave's title, with and without its type
	// THEN: It stays a leave on the casual credit both times

	s := setupTestServer(t)
	credit := s.create("2024-01-05", "January casual", "addCasualLeave", nil)
	leave := s.create("2024-01-15", "Off", "leave", map[string]any{"consumed_leave_id": credit})
	s.create("2024-01-13", "Worked Saturday", "extraDay", nil)

	for _, body := range []map[string]any{
		{"user_id": s.user, "title": "Off (doctor)"},
		{"user_id": s.user, "title": "Off (doctor)", "type": "leave"},
	} {
		rec := s.do(http.MethodPut, "/events/"+leave, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Event EventDTO `json:"event"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, "leave", resp.Event.Type)
		require.NotNil(t, resp.Event.LeaveType)
		assert.Equal(t, "casual", *resp.Event.LeaveType)
		require.NotNil(t, resp.Event.ConsumedLeaveID)
		assert.Equal(t, credit, *resp.Event.ConsumedLeaveID)
	}

	v := s.ledger()
	assert.Equal(t, 1, v.CasualUsed)
	assert.Equal(t, 1, v.ExtraRemaining)
}

func TestWrites_UnknownUser(t *testing.T) {
	// GIVEN: No user 999
	// WHEN: Claiming or importing for it
	// THEN: Both answer 404 instead of failing in the store

	s := setupTestServer(t)

	rec := s.do(http.MethodPost, "/claim-events", map[string]any{"user_id": 999, "event_ids": []string{"1"}})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/import?user_id=999", map[string]any{"events": map[string]any{}})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestDeleteEvent(t *testing.T) {
	// GIVEN: A credit consumed by a leave
	// WHEN: Deleting the credit, then the leave, then the credit
	// THEN: The first delete conflicts, the others succeed

	s := setupTestServer(t)
	credit := s.create("2024-01-13", "Worked Saturday", "extraDay", nil)
	leave := s.create("2024-01-15", "Off", "leave", nil)

	rec := s.do(http.MethodDelete, s.query("/events/"+credit), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "credit_in_use")

	rec = s.do(http.MethodDelete, s.query("/events/"+leave), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, s.query("/events/"+credit), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, s.query("/events/"+credit), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/events/"+leave, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaimEvents(t *testing.T) {
	// GIVEN: Two extra days, one consumed by a leave
	// WHEN: Claiming both, an unknown id, and then claiming again
	// THEN: Only the free one is claimed, and the repeat affects nothing

	s := setupTestServer(t)
	free := s.create("2024-01-06", "Worked Saturday", "extraDay", nil)
	used := s.create("2024-01-13", "Worked Saturday", "extraDay", nil)
	s.create("2024-01-15", "Off", "leave", map[string]any{"consumed_leave_id": used})

	body := map[string]any{"user_id": s.user, "event_ids": []any{free, used, 999}}
	rec := s.do(http.MethodPost, "/claim-events", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"affected_rows":1}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/claim-events", body)
	assert.JSONEq(t, `{"success":true,"affected_rows":0}`, rec.Body.String())

	v := s.ledger()
	assert.Equal(t, 1, v.ExtraClaimed)
	assert.Equal(t, 1, v.ExtraUsed)
	assert.Equal(t, 0, v.ExtraRemaining)

	rec = s.do(http.MethodPost, "/claim-events", map[string]any{"event_ids": []string{}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No events to claim.")

	rec = s.do(http.MethodPost, "/claim-events", map[string]any{"user_id": s.user})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearData(t *testing.T) {
	s := setupTestServer(t)
	s.create("2024-01-05", "January casual", "addCasualLeave", nil)
	s.create("2024-02-05", "February casual", "addCasualLeave", nil)

	rec := s.do(http.MethodDelete, "/clear-data", map[string]any{"user_id": s.user})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":2`)
	assert.Zero(t, s.ledger().CasualEarned)

	rec = s.do(http.MethodDelete, "/clear-data", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// LEDGER VIEWS
// =============================================================================

func TestGetBalance_Defaults(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(http.MethodGet, s.query("/leave-balance"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"user_id":%d,"casual_leave":12,"extra_days":0}`, s.user), rec.Body.String())

	rec = s.do(http.MethodGet, "/leave-balance", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/leave-balance?user_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBreakdown(t *testing.T) {
	s := setupTestServer(t)
	s.create("2024-01-05", "January casual", "addCasualLeave", nil)
	s.create("2024-02-20", "Off", "leave", nil)

	rec := s.do(http.MethodGet, s.query("/ledger/breakdown"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var b BreakdownDTO
	decode(t, rec, &b)
	require.Len(t, b.Months, 2)
	assert.Equal(t, "2024-01", b.Months[0].Month)
	assert.Equal(t, 1, b.Months[0].CasualEarned)
	assert.Equal(t, 1, b.Months[1].CasualTaken)
	assert.Equal(t, 1, b.Totals.TotalUsed)
}

func TestGetDay(t *testing.T) {
	// GIVEN: A leave on a recurring holiday's date
	// WHEN: Fetching that day
	// THEN: The entry carries its credit and the holiday is attached

	s := setupTestServer(t)
	credit := s.create("2024-12-01", "December casual", "addCasualLeave", nil)
	s.create("2024-12-24", "Christmas Eve off", "leave", nil)
	rec := s.do(http.MethodPost, "/holidays", HolidayRequest{Date: "2020-12-24", Name: "Christmas Eve", Recurring: true})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, s.query("/days/2024-12-24"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var d DayDTO
	decode(t, rec, &d)
	require.Len(t, d.Entries, 1)
	require.NotNil(t, d.Entries[0].Credit)
	assert.Equal(t, credit, d.Entries[0].Credit.ID)
	require.NotNil(t, d.Holiday)
	assert.Equal(t, "Christmas Eve", d.Holiday.Name)
	assert.Equal(t, "2024-12-24", d.Holiday.Date)

	rec = s.do(http.MethodGet, s.query("/days/2024-13-01"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	s := setupTestServer(t)
	s.create("2024-03-01", "Dentist", "note", nil)
	s.create("2024-03-02", "Groceries", "note", map[string]any{"description": "after dentist"})
	s.create("2024-03-03", "Gym", "note", nil)

	rec := s.do(http.MethodGet, s.query("/search?q=DENTIST"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var events []EventDTO
	decode(t, rec, &events)
	assert.Len(t, events, 2)
}

// =============================================================================
// BACKUP
// =============================================================================

func TestExportImport(t *testing.T) {
	// GIVEN: A log with a consumed credit and a claimed extra day
	// WHEN: Exporting, clearing, and importing the export
	// THEN: The derived ledger is the same as before

	s := setupTestServer(t)
	credit := s.create("2024-01-05", "January casual", "addCasualLeave", nil)
	s.create("2024-01-15", "Off", "leave", map[string]any{"consumed_leave_id": credit})
	extra := s.create("2024-01-13", "Worked Saturday", "extraDay", nil)
	s.do(http.MethodPost, "/claim-events", map[string]any{"user_id": s.user, "event_ids": []string{extra}})
	before := s.ledger()

	rec := s.do(http.MethodGet, s.query("/export"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	doc := rec.Body.String()

	s.do(http.MethodDelete, "/clear-data", map[string]any{"user_id": s.user})
	rec = s.do(http.MethodPost, s.query("/import"), doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"imported":3`)

	after := s.ledger()
	assert.Equal(t, before.CasualUsed, after.CasualUsed)
	assert.Equal(t, before.ExtraClaimed, after.ExtraClaimed)
	assert.Equal(t, before.TotalUsed, after.TotalUsed)
	assert.Empty(t, after.Warnings)
}

func TestImport_ReportsWarnings(t *testing.T) {
	// GIVEN: A backup where two leaves spend the same credit
	// WHEN: Importing it
	// THEN: It is stored and the anomaly comes back as a warning

	s := setupTestServer(t)
	doc := `{"events": {
		"2024-01-05": [{"id": 1, "title": "Jan", "type": "addCasualLeave"}],
		"2024-01-15": [{"id": 2, "title": "Off", "type": "leave", "leaveType": "casual", "consumedLeaveId": 1}],
		"2024-01-16": [{"id": 3, "title": "Off", "type": "leave", "leaveType": "casual", "consumedLeaveId": 1}]
	}}`

	rec := s.do(http.MethodPost, s.query("/import"), doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "ambiguous_consumption")

	rec = s.do(http.MethodGet, s.query("/ledger/warnings"), nil)
	assert.Contains(t, rec.Body.String(), "ambiguous_consumption")

	rec = s.do(http.MethodPost, s.query("/import"), `{"events": {"Jan 5": []}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(http.MethodPost, "/holidays/defaults", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/holidays/defaults", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/holidays?year=2030", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Holidays []HolidayDTO `json:"holidays"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Holidays, len(defaultHolidays))
	assert.Equal(t, "2030-01-01", resp.Holidays[0].Date)

	rec = s.do(http.MethodDelete, "/holidays/"+resp.Holidays[0].ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/holidays/"+resp.Holidays[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/holidays", HolidayRequest{Name: "No date"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/holidays?year=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// WIRING
// =============================================================================

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	id := s.create("2024-03-01", "Dentist", "note", nil)
	s.do(http.MethodDelete, s.query("/events/"+id), nil)
	s.ledger()

	rec := s.do(http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `leavecal_http_requests_total{method="DELETE",route="/events/{id}",status="200"} 1`)
	assert.Contains(t, body, "leavecal_ledger_derivations_total 1")
}

func TestCORS(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
