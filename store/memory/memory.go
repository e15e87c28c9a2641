// Package memory provides an in-memory tracker.Store for tests and
// throwaway --memory servers.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/tracker"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu       sync.RWMutex
	users    map[ledger.UserID]tracker.User
	nextUser ledger.UserID
	events   map[ledger.EventID]ledger.Event
	balances map[ledger.UserID]tracker.Balance
	holidays map[string]tracker.Holiday
	now      func() time.Time
}

var _ tracker.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[ledger.UserID]tracker.User),
		events:   make(map[ledger.EventID]ledger.Event),
		balances: make(map[ledger.UserID]tracker.Balance),
		holidays: make(map[string]tracker.Holiday),
		now:      time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// =============================================================================
// USERS
// =============================================================================

func (s *Store) FindUser(_ context.Context, email, name string) (*tracker.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && u.Name == name {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUser(_ context.Context, id ledger.UserID) (*tracker.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) CreateUser(_ context.Context, u *tracker.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return tracker.ErrUserExists
		}
	}
	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = s.now()
	s.users[u.ID] = *u
	return nil
}

// =============================================================================
// EVENTS
// =============================================================================

// ListEvents returns the user's events newest date first.
func (s *Store) ListEvents(_ context.Context, user ledger.UserID) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Event
	for _, e := range s.events {
		if e.UserID == user {
			out = append(out, copyEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID.Less(out[j].ID)
	})
	return out, nil
}

func (s *Store) GetEvent(_ context.Context, id ledger.EventID) (*ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	e = copyEvent(e)
	return &e, nil
}

func (s *Store) CreateEvent(_ context.Context, e *ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = ledger.EventID(uuid.NewString())
	}
	e.CreatedAt = s.now()
	s.events[e.ID] = copyEvent(*e)
	return nil
}

func (s *Store) UpdateEvent(_ context.Context, e ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.events[e.ID]
	if !ok {
		return tracker.ErrEventNotFound
	}
	e.UserID = current.UserID
	e.CreatedAt = current.CreatedAt
	s.events[e.ID] = copyEvent(e)
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id ledger.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return tracker.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

// ClaimEvents flips unclaimed extra days of the user and reports how many
// changed.
func (s *Store) ClaimEvents(_ context.Context, user ledger.UserID, ids []ledger.EventID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	affected := 0
	for _, id := range ids {
		e, ok := s.events[id]
		if !ok || e.UserID != user || e.Kind != ledger.KindExtraDayEarned || e.Claimed {
			continue
		}
		e.Claimed = true
		s.events[id] = e
		affected++
	}
	return affected, nil
}

func (s *Store) ClearEvents(_ context.Context, user ledger.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.events {
		if e.UserID == user {
			delete(s.events, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) ReplaceEvents(_ context.Context, user ledger.UserID, events []ledger.Event, balance tracker.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.events {
		if e.UserID == user {
			delete(s.events, id)
		}
	}
	now := s.now()
	for _, e := range events {
		e.UserID = user
		if e.ID == "" {
			e.ID = ledger.EventID(uuid.NewString())
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		s.events[e.ID] = copyEvent(e)
	}
	balance.UserID = user
	s.balances[user] = balance
	return nil
}

func copyEvent(e ledger.Event) ledger.Event {
	if e.ConsumedCreditID != nil {
		e.ConsumedCreditID = e.ConsumedCreditID.Ref()
	}
	return e
}

// =============================================================================
// BALANCE
// =============================================================================

func (s *Store) GetBalance(_ context.Context, user ledger.UserID) (*tracker.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[user]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) SaveBalance(_ context.Context, b tracker.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[b.UserID] = b
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) ListHolidays(_ context.Context, year int) ([]tracker.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []tracker.Holiday
	for _, h := range s.holidays {
		switch {
		case year == 0 || (!h.Recurring && h.Date.Year() == year):
			out = append(out, h)
		case h.Recurring:
			h.Date = ledger.NewDate(year, h.Date.Month(), h.Date.Day())
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// SaveHoliday upserts by date: one holiday per day.
func (s *Store) SaveHoliday(_ context.Context, h *tracker.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.holidays {
		if existing.Date.Equal(h.Date) {
			delete(s.holidays, id)
			if h.ID == "" {
				h.ID = id
			}
		}
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	s.holidays[h.ID] = *h
	return nil
}

func (s *Store) DeleteHoliday(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.holidays[id]; !ok {
		return tracker.ErrHolidayNotFound
	}
	delete(s.holidays, id)
	return nil
}
