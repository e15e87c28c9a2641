/*
scenarios.go - Demo scenarios for the leave calendar

PURPOSE:
  Loads small, known event logs into a demo user so the ledger rules can be
  seen end to end in the web client. Each scenario goes through the same
  service calls a user would make.

SCENARIOS:
  casual-earned     One casual credit, nothing used
  casual-used       A casual credit consumed by a leave
  extra-claimed     An extra day claimed
  claim-unknown     Claiming an id that does not exist changes nothing
  consumed-claim    Claiming an extra day already consumed changes nothing

DEMO USER:
  demo@example.com / Demo. Created on first load; its events are cleared
  before every load. Other users are never touched.

SEE ALSO:
  - handlers.go: Handler
  - tracker/service.go: the calls each scenario makes
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/tracker"
)

const (
	demoEmail = "demo@example.com"
	demoName  = "Demo"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "casual-earned",
		Name:        "Casual Leave Earned",
		Description: "One casual credit for January, still available",
	},
	{
		ID:          "casual-used",
		Name:        "Casual Leave Used",
		Description: "A leave consumes the January casual credit",
	},
	{
		ID:          "extra-claimed",
		Name:        "Extra Day Claimed",
		Description: "An extra day worked is claimed instead of taken off",
	},
	{
		ID:          "claim-unknown",
		Name:        "Claim Unknown Day",
		Description: "Claiming an id that does not exist is a no-op",
	},
	{
		ID:          "consumed-claim",
		Name:        "Claim After Use",
		Description: "An extra day already taken off cannot be claimed",
	},
}

// ScenarioResult is what loading a scenario produced.
type ScenarioResult struct {
	UserID   ledger.UserID
	Claimed  int
	Scenario string
}

// ListScenarios returns available scenarios.
// GET /scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario.
// GET /scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current, user := h.currentScenario, h.scenarioUser
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, map[string]any{"scenario": nil})
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, map[string]any{"scenario": s, "user_id": user})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenario": nil})
}

// LoadScenario resets the demo user and loads a scenario into it.
// POST /scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := h.loadScenario(r.Context(), req.ScenarioID)
	if errors.Is(err, errUnknownScenario) {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err != nil {
		h.fail(w, r, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": res.Scenario,
		"user_id":  res.UserID,
		"claimed":  res.Claimed,
	})
}

var errUnknownScenario = errors.New("unknown scenario")

func (h *Handler) loadScenario(ctx context.Context, id string) (ScenarioResult, error) {
	loaders := map[string]func(context.Context, ledger.UserID) (int, error){
		"casual-earned":  h.loadCasualEarned,
		"casual-used":    h.loadCasualUsed,
		"extra-claimed":  h.loadExtraClaimed,
		"claim-unknown":  h.loadClaimUnknown,
		"consumed-claim": h.loadConsumedClaim,
	}
	load, ok := loaders[id]
	if !ok {
		return ScenarioResult{}, errUnknownScenario
	}

	user, err := h.demoUser(ctx)
	if err != nil {
		return ScenarioResult{}, err
	}
	if _, err := h.Service.ClearData(ctx, user); err != nil {
		return ScenarioResult{}, err
	}

	claimed, err := load(ctx, user)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("scenario %s: %w", id, err)
	}

	h.mu.Lock()
	h.currentScenario, h.scenarioUser = id, user
	h.mu.Unlock()

	h.log.WithField("scenario", id).WithField("user_id", user).Info("scenario loaded")
	return ScenarioResult{UserID: user, Claimed: claimed, Scenario: id}, nil
}

func (h *Handler) demoUser(ctx context.Context) (ledger.UserID, error) {
	u, err := h.Service.Login(ctx, demoEmail, demoName)
	if errors.Is(err, tracker.ErrUserNotFound) {
		u, err = h.Service.Register(ctx, demoEmail, demoName)
	}
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadCasualEarned(ctx context.Context, user ledger.UserID) (int, error) {
	_, err := h.add(ctx, user, "2024-01-05", "January casual leave", ledger.KindAddCasualLeave, "", nil)
	return 0, err
}

func (h *Handler) loadCasualUsed(ctx context.Context, user ledger.UserID) (int, error) {
	credit, err := h.add(ctx, user, "2024-01-05", "January casual leave", ledger.KindAddCasualLeave, "", nil)
	if err != nil {
		return 0, err
	}
	_, err = h.add(ctx, user, "2024-01-15", "Day off", ledger.KindLeaveTaken, ledger.SourceCasual, credit.ID.Ref())
	return 0, err
}

func (h *Handler) loadExtraClaimed(ctx context.Context, user ledger.UserID) (int, error) {
	extra, err := h.add(ctx, user, "2024-01-13", "Worked Saturday", ledger.KindExtraDayEarned, "", nil)
	if err != nil {
		return 0, err
	}
	return h.Service.Claim(ctx, user, []ledger.EventID{extra.ID})
}

func (h *Handler) loadClaimUnknown(ctx context.Context, user ledger.UserID) (int, error) {
	if _, err := h.add(ctx, user, "2024-01-13", "Worked Saturday", ledger.KindExtraDayEarned, "", nil); err != nil {
		return 0, err
	}
	return h.Service.Claim(ctx, user, []ledger.EventID{"999"})
}

func (h *Handler) loadConsumedClaim(ctx context.Context, user ledger.UserID) (int, error) {
	extra, err := h.add(ctx, user, "2024-01-13", "Worked Saturday", ledger.KindExtraDayEarned, "", nil)
	if err != nil {
		return 0, err
	}
	if _, err := h.add(ctx, user, "2024-01-19", "Day off", ledger.KindLeaveTaken, ledger.SourceExtra, extra.ID.Ref()); err != nil {
		return 0, err
	}
	return h.Service.Claim(ctx, user, []ledger.EventID{extra.ID})
}

func (h *Handler) add(ctx context.Context, user ledger.UserID, date, title string, kind ledger.Kind, source ledger.LeaveSource, credit *ledger.EventID) (ledger.Event, error) {
	return h.Service.CreateEvent(ctx, user, tracker.EventInput{
		Date:        ledger.MustParseDate(date),
		Title:       title,
		Kind:        kind,
		LeaveSource: source,
		CreditID:    credit,
	})
}
