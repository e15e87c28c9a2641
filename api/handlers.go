/*
handlers.go - HTTP API handlers for the leave calendar

PURPOSE:
  Exposes the tracker service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to tracker.Service. No ledger
  arithmetic happens here.

ENDPOINTS:
  Status:
    GET    /                          API is up
    GET    /health                    Store reachable (503 when not)

  Users:
    POST   /login                     Log in by email and name

  Events:
    GET    /events?user_id=           User's events, newest first
    POST   /events                    Create event
    PUT    /events/{id}               Update event
    DELETE /events/{id}?user_id=      Delete event
    POST   /claim-events              Claim extra days
    DELETE /clear-data                Delete all of a user's events

  Ledger:
    GET    /leave-balance?user_id=    Declared starting balance
    GET    /ledger?user_id=           Derived ledger view
    GET    /ledger/breakdown?user_id= Per-month summary
    GET    /ledger/warnings?user_id=  Integrity warnings
    GET    /days/{date}?user_id=      One calendar day
    GET    /search?user_id=&q=        Title/description search

  Backup:
    GET    /export?user_id=           Download backup document
    POST   /import?user_id=           Replace log from backup document

  Holidays:
    GET    /holidays?year=            List holidays
    POST   /holidays                  Create or rename holiday
    POST   /holidays/defaults         Add default recurring holidays
    DELETE /holidays/{id}             Delete holiday

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, malformed backup
  - 401: Login with unknown credentials
  - 404: Event, user or holiday not found
  - 409: Write rule violated (month taken, credit unavailable or in use)
  - 500: Store failures
  - 503: /health when the store does not answer

SECURITY NOTE:
  No authentication. user_id is trusted as sent, like the web client
  always did. Ownership is still checked: a user cannot touch another
  user's events.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/tracker"
	"github.com/warp/leave-calendar/transfer"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the service all endpoints delegate to.
type Handler struct {
	Service *tracker.Service
	log     logrus.FieldLogger

	mu              sync.Mutex
	currentScenario string
	scenarioUser    ledger.UserID
}

func NewHandler(svc *tracker.Service, log logrus.FieldLogger) *Handler {
	return &Handler{Service: svc, log: log}
}

// Status reports that the API is up.
// GET /
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "API is working",
		"method":    r.Method,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health pings the store: 200 when it answers, 503 when it does not.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Service.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

// Login returns the user matching email and name.
// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u, err := h.Service.Login(r.Context(), req.Email, req.Name)
	if errors.Is(err, tracker.ErrUserNotFound) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "User not found"})
		return
	}
	if err != nil {
		h.fail(w, r, "Login failed", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		UserID:  int64(u.ID),
		Email:   u.Email,
		Name:    u.Name,
	})
}

// =============================================================================
// EVENT ENDPOINTS
// =============================================================================

// ListEvents returns the user's events, newest first.
// GET /events?user_id=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	events, err := h.Service.Events(r.Context(), user)
	if err != nil {
		h.fail(w, r, "Failed to get events", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// CreateEvent records a new event. Leaves without an explicit credit are
// matched to one by the service.
// POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data", err)
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "User ID required", nil)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if in.Kind == "" {
		in.Kind = ledger.KindNote
	}

	e, err := h.Service.CreateEvent(r.Context(), ledger.UserID(req.UserID), in)
	if err != nil {
		h.fail(w, r, "Failed to create event", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"event_id": e.ID,
		"event":    ToEventDTO(e),
	})
}

// UpdateEvent replaces an event's fields.
// PUT /events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := ledger.EventID(chi.URLParam(r, "id"))

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data", err)
		return
	}
	user := ledger.UserID(req.UserID)
	if user <= 0 {
		var ok bool
		if user, ok = queryUser(w, r); !ok {
			return
		}
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	e, err := h.Service.UpdateEvent(r.Context(), user, id, in)
	if err != nil {
		h.fail(w, r, "Failed to update event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ToEventDTO(e)})
}

// DeleteEvent removes an event. A credit a leave consumed cannot be deleted.
// DELETE /events/{id}?user_id=
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := ledger.EventID(chi.URLParam(r, "id"))
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteEvent(r.Context(), user, id); err != nil {
		h.fail(w, r, "Failed to delete event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ClaimEvents marks extra days as claimed.
// POST /claim-events
func (h *Handler) ClaimEvents(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventIDs == nil {
		writeError(w, http.StatusBadRequest, "Event IDs are required", err)
		return
	}
	if len(req.EventIDs) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"message":       "No events to claim.",
			"affected_rows": 0,
		})
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "User ID is required", nil)
		return
	}

	n, err := h.Service.Claim(r.Context(), ledger.UserID(req.UserID), req.ids())
	if err != nil {
		h.fail(w, r, "Failed to claim events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "affected_rows": n})
}

// ClearData deletes every event of a user.
// DELETE /clear-data
func (h *Handler) ClearData(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "User ID is required", err)
		return
	}

	n, err := h.Service.ClearData(r.Context(), ledger.UserID(req.UserID))
	if err != nil {
		h.fail(w, r, "Failed to clear user data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All user data cleared.",
		"deleted": n,
	})
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

// GetBalance returns the declared starting balance.
// GET /leave-balance?user_id=
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	b, err := h.Service.Balance(r.Context(), user)
	if err != nil {
		h.fail(w, r, "Failed to get leave balance", err)
		return
	}
	writeJSON(w, http.StatusOK, ToBalanceDTO(b))
}

// GetLedger returns the derived ledger view.
// GET /ledger?user_id=
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	v, err := h.Service.Ledger(r.Context(), user)
	if err != nil {
		h.fail(w, r, "Failed to derive ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, ToLedgerDTO(v))
}

// GetBreakdown returns per-month totals.
// GET /ledger/breakdown?user_id=
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	b, err := h.Service.Breakdown(r.Context(), user)
	if err != nil {
		h.fail(w, r, "Failed to derive breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(b))
}

// GetWarnings returns the integrity warnings of the user's log.
// GET /ledger/warnings?user_id=
func (h *Handler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	ws, err := h.Service.Warnings(r.Context(), user)
	if err != nil {
		h.fail(w, r, "Failed to check ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"warnings": toWarningDTOs(ws)})
}

// GetDay returns one day's events and holiday.
// GET /days/{date}?user_id=
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	day, err := ledger.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	d, err := h.Service.Day(r.Context(), user, day)
	if err != nil {
		h.fail(w, r, "Failed to get day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTO(d))
}

// Search finds events by title or description.
// GET /search?user_id=&q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	events, err := h.Service.Search(r.Context(), user, r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, "Failed to search events", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// =============================================================================
// BACKUP ENDPOINTS
// =============================================================================

// Export downloads the user's backup document.
// GET /export?user_id=
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	doc, err := h.Service.Export(r.Context(), user)
	if err != nil {
		h.fail(w, r, "Failed to export", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="leave-calendar-%s.json"`, time.Now().Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	if err := transfer.Encode(w, doc); err != nil {
		h.log.WithError(err).WithField("user_id", user).Error("export write failed")
	}
}

// Import replaces the user's log and balance with an uploaded document.
// POST /import?user_id=
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	user, ok := queryUser(w, r)
	if !ok {
		return
	}
	doc, err := transfer.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid backup document", err)
		return
	}

	n, err := h.Service.Import(r.Context(), user, doc)
	if err != nil {
		h.fail(w, r, "Failed to import", err)
		return
	}
	ws, err := h.Service.Warnings(r.Context(), user)
	if err != nil {
		h.fail(w, r, "Failed to check ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"imported": n,
		"warnings": toWarningDTOs(ws),
	})
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns the holidays of a year, or all of them.
// GET /holidays?year=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := 0
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	holidays, err := h.Service.Holidays(r.Context(), year)
	if err != nil {
		h.fail(w, r, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday creates a holiday, or renames the one on that date.
// POST /holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	hol, err := h.Service.AddHoliday(r.Context(), date, req.Name, req.Recurring)
	if err != nil {
		h.fail(w, r, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "created",
		"holiday": toHolidayDTO(hol),
	})
}

// DeleteHoliday deletes a holiday.
// DELETE /holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// defaultHolidays are added as recurring by AddDefaultHolidays.
var defaultHolidays = []struct {
	month time.Month
	day   int
	name  string
}{
	{time.January, 1, "New Year's Day"},
	{time.May, 1, "Labour Day"},
	{time.December, 25, "Christmas Day"},
	{time.December, 31, "New Year's Eve"},
}

// AddDefaultHolidays adds the common recurring holidays. Calling it twice
// changes nothing: holidays are keyed by date.
// POST /holidays/defaults
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	for _, d := range defaultHolidays {
		if _, err := h.Service.AddHoliday(r.Context(), ledger.NewDate(year, d.month, d.day), d.name, true); err != nil {
			h.fail(w, r, "Failed to add holidays", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"count":  len(defaultHolidays),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps a service error to its HTTP status. Unexpected errors are logged
// and their details withheld.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	resp := ErrorResponse{Error: message, Code: errorCode(err), Details: err.Error()}

	status := http.StatusInternalServerError
	switch {
	case tracker.IsNotFound(err):
		status = http.StatusNotFound
	case tracker.IsConflict(err):
		status = http.StatusConflict
	case tracker.IsClientError(err):
		status = http.StatusBadRequest
	default:
		h.log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).Error(message)
		resp.Details = nil
	}
	writeJSON(w, status, resp)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, tracker.ErrCasualLeaveMonthTaken):
		return "casual_leave_month_taken"
	case errors.Is(err, tracker.ErrCreditUnavailable):
		return "credit_unavailable"
	case errors.Is(err, tracker.ErrCreditInUse):
		return "credit_in_use"
	case errors.Is(err, tracker.ErrUserExists):
		return "user_exists"
	case tracker.IsNotFound(err):
		return "not_found"
	case tracker.IsClientError(err):
		return "invalid_input"
	}
	return ""
}

// queryUser reads ?user_id= and writes a 400 when it is missing or bad.
func queryUser(w http.ResponseWriter, r *http.Request) (ledger.UserID, bool) {
	s := r.URL.Query().Get("user_id")
	if s == "" {
		writeError(w, http.StatusBadRequest, "User ID required", nil)
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid user ID", err)
		return 0, false
	}
	return ledger.UserID(id), true
}
