/*
service.go - Leave calendar service with write-time rules

PURPOSE:
  The write side in front of the pure ledger. Every read loads the user's
  log from the Store and derives a fresh ledger.View; every write is checked
  against that same derived view before it is persisted.

WRITE RULES:
  1. Title, kind and date are required.
  2. At most one addCasualLeave per user per calendar month.
  3. A leave that names a credit may only consume an available credit, and
     its source follows the credit's kind (extraDay -> extra, casual -> casual).
  4. A leave with source casual/extra but no credit takes the first available
     credit of that pool.
  5. A leave with no source and no credit takes the default credit (extra
     days first), or is paid when nothing is available.
  6. A consumed credit may not be deleted or change kind.

  The ledger tolerates logs that break these rules (imports, legacy data)
  and reports them as warnings. The service just refuses to create them.

NO CACHE:
  Nothing derived is stored. The next read after any mutation re-derives.

SEE ALSO:
  - store.go: persistence contract
  - ledger/view.go: derivation
  - ledger/claim.go: claim planning
*/
package tracker

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/transfer"
)

// Observer receives ledger activity. metrics.Collector implements it.
type Observer interface {
	LedgerDerived(warnings []ledger.Warning)
	Claimed(requested, affected int)
}

type nopObserver struct{}

func (nopObserver) LedgerDerived([]ledger.Warning) {}
func (nopObserver) Claimed(int, int)               {}

// EventInput is the caller-controlled part of an event. Only Claim sets
// Claimed. UpdateEvent fills a zero Date or Kind from the stored event.
type EventInput struct {
	Date        ledger.Date
	Title       string
	Description string
	Kind        ledger.Kind
	LeaveSource ledger.LeaveSource
	CreditID    *ledger.EventID
}

// DayView is everything shown for a single calendar day.
type DayView struct {
	Date    ledger.Date
	Entries []ledger.DayEntry
	Holiday *Holiday
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store    Store
	log      logrus.FieldLogger
	observer Observer
	defaults Balance
	newID    func() ledger.EventID
}

type Option func(*Service)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithDefaultBalance sets the starting balance reported for users that never
// saved one.
func WithDefaultBalance(casualLeave, extraDays decimal.Decimal) Option {
	return func(s *Service) {
		s.defaults.CasualLeave = casualLeave
		s.defaults.ExtraDays = extraDays
	}
}

// WithIDGenerator replaces the uuid generator used for imported events.
func WithIDGenerator(fn func() ledger.EventID) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(store Store, opts ...Option) *Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Service{
		store:    store,
		log:      discard,
		observer: nopObserver{},
		defaults: Balance{
			CasualLeave: transfer.DefaultCasualLeave,
			ExtraDays:   transfer.DefaultExtraDays,
		},
		newID: func() ledger.EventID { return ledger.EventID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping reports whether the store can serve requests.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

// =============================================================================
// USERS
// =============================================================================

// Login looks up a user by email (case-insensitive) and name.
func (s *Service) Login(ctx context.Context, email, name string) (User, error) {
	email, name = normalizeEmail(email), strings.TrimSpace(name)
	if email == "" || name == "" {
		return User{}, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}
	u, err := s.store.FindUser(ctx, email, name)
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return User{}, ErrUserNotFound
	}
	return *u, nil
}

func (s *Service) Register(ctx context.Context, email, name string) (User, error) {
	email, name = normalizeEmail(email), strings.TrimSpace(name)
	if email == "" || name == "" {
		return User{}, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}
	u := &User{Email: email, Name: name}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("user registered")
	return *u, nil
}

func (s *Service) User(ctx context.Context, id ledger.UserID) (User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return User{}, ErrUserNotFound
	}
	return *u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// =============================================================================
// READS
// =============================================================================

// Events returns the user's raw log as stored.
func (s *Service) Events(ctx context.Context, user ledger.UserID) ([]ledger.Event, error) {
	events, err := s.store.ListEvents(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *Service) Ledger(ctx context.Context, user ledger.UserID) (ledger.View, error) {
	events, err := s.Events(ctx, user)
	if err != nil {
		return ledger.View{}, err
	}
	v := ledger.Derive(events)
	s.observe(user, v.Warnings)
	return v, nil
}

func (s *Service) Breakdown(ctx context.Context, user ledger.UserID) (ledger.Breakdown, error) {
	events, err := s.Events(ctx, user)
	if err != nil {
		return ledger.Breakdown{}, err
	}
	b := ledger.Summarize(events)
	s.observe(user, b.View.Warnings)
	return b, nil
}

func (s *Service) Warnings(ctx context.Context, user ledger.UserID) ([]ledger.Warning, error) {
	events, err := s.Events(ctx, user)
	if err != nil {
		return nil, err
	}
	return ledger.Check(events), nil
}

func (s *Service) Search(ctx context.Context, user ledger.UserID, term string) ([]ledger.Event, error) {
	events, err := s.Events(ctx, user)
	if err != nil {
		return nil, err
	}
	return ledger.Search(events, term), nil
}

func (s *Service) Day(ctx context.Context, user ledger.UserID, day ledger.Date) (DayView, error) {
	events, err := s.Events(ctx, user)
	if err != nil {
		return DayView{}, err
	}
	holidays, err := s.Holidays(ctx, day.Year())
	if err != nil {
		return DayView{}, err
	}

	dv := DayView{Date: day, Entries: ledger.OnDate(events, day)}
	for i := range holidays {
		if holidays[i].Date.Equal(day) {
			dv.Holiday = &holidays[i]
			break
		}
	}
	return dv, nil
}

func (s *Service) observe(user ledger.UserID, warnings []ledger.Warning) {
	s.observer.LedgerDerived(warnings)
	for _, w := range warnings {
		s.log.WithFields(logrus.Fields{
			"user_id":   user,
			"code":      w.Code,
			"event_id":  w.EventID,
			"credit_id": w.CreditID,
		}).Warn(w.Message)
	}
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Service) CreateEvent(ctx context.Context, user ledger.UserID, in EventInput) (ledger.Event, error) {
	if err := s.requireUser(ctx, user); err != nil {
		return ledger.Event{}, err
	}
	events, err := s.Events(ctx, user)
	if err != nil {
		return ledger.Event{}, err
	}
	e, err := prepare(events, user, in, nil)
	if err != nil {
		return ledger.Event{}, err
	}
	if err := s.store.CreateEvent(ctx, &e); err != nil {
		return ledger.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.logEvent("event created", e)
	return e, nil
}

func (s *Service) UpdateEvent(ctx context.Context, user ledger.UserID, id ledger.EventID, in EventInput) (ledger.Event, error) {
	current, err := s.owned(ctx, user, id)
	if err != nil {
		return ledger.Event{}, err
	}
	// Clients that edit text only send no date or type.
	if in.Date.IsZero() {
		in.Date = current.Date
	}
	if in.Kind == "" {
		in.Kind = current.Kind
	}
	events, err := s.Events(ctx, user)
	if err != nil {
		return ledger.Event{}, err
	}
	e, err := prepare(events, user, in, &current)
	if err != nil {
		return ledger.Event{}, err
	}
	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return ledger.Event{}, fmt.Errorf("update event: %w", err)
	}
	s.logEvent("event updated", e)
	return e, nil
}

func (s *Service) DeleteEvent(ctx context.Context, user ledger.UserID, id ledger.EventID) error {
	current, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}
	if current.IsCredit() {
		events, err := s.Events(ctx, user)
		if err != nil {
			return err
		}
		if leave, used := ledger.Derive(events).ConsumedBy(id); used {
			return &CreditInUseError{CreditID: id, LeaveID: leave}
		}
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.logEvent("event deleted", current)
	return nil
}

// Claim marks the given extra days as claimed and returns how many changed.
// Ids that are unknown, not extra days, already claimed or consumed are
// skipped, so repeating a claim is a no-op.
func (s *Service) Claim(ctx context.Context, user ledger.UserID, ids []ledger.EventID) (int, error) {
	if err := s.requireUser(ctx, user); err != nil {
		return 0, err
	}
	events, err := s.Events(ctx, user)
	if err != nil {
		return 0, err
	}
	planned := ledger.PlanClaim(events, ids)

	affected := 0
	if len(planned) > 0 {
		affected, err = s.store.ClaimEvents(ctx, user, planned)
		if err != nil {
			return 0, fmt.Errorf("claim events: %w", err)
		}
	}
	s.observer.Claimed(len(ids), affected)
	s.log.WithFields(logrus.Fields{
		"user_id":   user,
		"requested": len(ids),
		"affected":  affected,
	}).Info("extra days claimed")
	return affected, nil
}

// ClearData deletes every event of the user. The starting balance is kept.
func (s *Service) ClearData(ctx context.Context, user ledger.UserID) (int, error) {
	n, err := s.store.ClearEvents(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("clear events: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user, "deleted": n}).Info("events cleared")
	return n, nil
}

// requireUser fails with ErrUserNotFound unless user is registered.
func (s *Service) requireUser(ctx context.Context, user ledger.UserID) error {
	_, err := s.User(ctx, user)
	return err
}

func (s *Service) owned(ctx context.Context, user ledger.UserID, id ledger.EventID) (ledger.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("get event: %w", err)
	}
	if e == nil || e.UserID != user {
		return ledger.Event{}, fmt.Errorf("event %s: %w", id, ErrEventNotFound)
	}
	return *e, nil
}

func (s *Service) logEvent(msg string, e ledger.Event) {
	fields := logrus.Fields{
		"user_id":  e.UserID,
		"event_id": e.ID,
		"date":     e.Date.String(),
		"type":     e.Kind,
	}
	if e.Kind == ledger.KindLeaveTaken {
		fields["leave_type"] = e.LeaveSource
		if e.ConsumedCreditID != nil {
			fields["consumed_leave_id"] = *e.ConsumedCreditID
		}
	}
	s.log.WithFields(fields).Info(msg)
}

// =============================================================================
// RULES
// =============================================================================

// prepare validates in against the user's current log and returns the event
// to persist. current is the stored event when updating.
func prepare(events []ledger.Event, user ledger.UserID, in EventInput, current *ledger.Event) (ledger.Event, error) {
	if err := validate(in); err != nil {
		return ledger.Event{}, err
	}

	e := ledger.Event{
		UserID:      user,
		Date:        in.Date,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Kind:        in.Kind,
	}

	others := events
	if current != nil {
		e.ID = current.ID
		e.CreatedAt = current.CreatedAt
		e.Claimed = current.Claimed

		if current.IsCredit() && current.Kind != e.Kind {
			if leave, used := ledger.Derive(events).ConsumedBy(current.ID); used {
				return ledger.Event{}, &CreditInUseError{CreditID: current.ID, LeaveID: leave}
			}
		}
		others = without(events, current.ID)
	}

	switch e.Kind {
	case ledger.KindAddCasualLeave:
		for _, o := range others {
			if o.Kind == ledger.KindAddCasualLeave && o.Date.SameMonth(e.Date) {
				return ledger.Event{}, &MonthTakenError{Month: e.Date.MonthKey(), Existing: o.ID}
			}
		}

	case ledger.KindLeaveTaken:
		if keepsCredit(current, in) {
			e.LeaveSource = current.LeaveSource
			if current.ConsumedCreditID != nil {
				e.ConsumedCreditID = current.ConsumedCreditID.Ref()
			}
			break
		}
		source, credit, err := pickCredit(ledger.Derive(others), in)
		if err != nil {
			return ledger.Event{}, err
		}
		e.LeaveSource = source
		if credit != nil {
			e.ConsumedCreditID = credit.Ref()
		}
	}

	return e.Normalize(), nil
}

func validate(in EventInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return &InvalidEventError{Field: "title", Reason: "is required"}
	case !in.Kind.Valid():
		return &InvalidEventError{Field: "type", Reason: fmt.Sprintf("%q is not a known event type", in.Kind)}
	case in.Date.IsZero():
		return &InvalidEventError{Field: "event_date", Reason: "is required"}
	case in.LeaveSource != "" && !in.LeaveSource.Valid():
		return &InvalidEventError{Field: "leave_type", Reason: fmt.Sprintf("%q is not a known leave type", in.LeaveSource)}
	}
	return nil
}

// pickCredit resolves which credit a leave consumes and the source it is
// recorded under.
func pickCredit(v ledger.View, in EventInput) (ledger.LeaveSource, *ledger.EventID, error) {
	switch {
	case in.LeaveSource == ledger.SourcePaid:
		return ledger.SourcePaid, nil, nil

	case in.CreditID != nil:
		id := *in.CreditID
		if !v.IsAvailable(id) {
			return "", nil, &CreditUnavailableError{CreditID: id, Status: v.Status(id)}
		}
		credit, _ := v.Credit(id)
		source, _ := ledger.SourceFor(credit.Kind)
		return source, &id, nil

	case in.LeaveSource.Debits():
		pool := v.AvailableCasualCredits
		if in.LeaveSource == ledger.SourceExtra {
			pool = v.AvailableExtraCredits
		}
		if len(pool) == 0 {
			return "", nil, &CreditUnavailableError{Pool: in.LeaveSource}
		}
		id := pool[0].ID
		return in.LeaveSource, &id, nil

	default:
		credit, ok := v.DefaultCredit()
		if !ok {
			return ledger.SourcePaid, nil, nil
		}
		source, _ := ledger.SourceFor(credit.Kind)
		id := credit.ID
		return source, &id, nil
	}
}

// keepsCredit reports whether an edited leave stays on its stored source and
// credit: it was a leave already and the input names neither.
func keepsCredit(current *ledger.Event, in EventInput) bool {
	return current != nil &&
		current.Kind == ledger.KindLeaveTaken &&
		in.LeaveSource == "" &&
		in.CreditID == nil
}

func without(events []ledger.Event, id ledger.EventID) []ledger.Event {
	out := make([]ledger.Event, 0, len(events))
	for _, e := range events {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// BALANCE, TRANSFER, HOLIDAYS
// =============================================================================

// Balance returns the user's declared starting balance, or the defaults.
func (s *Service) Balance(ctx context.Context, user ledger.UserID) (Balance, error) {
	b, err := s.store.GetBalance(ctx, user)
	if err != nil {
		return Balance{}, fmt.Errorf("get balance: %w", err)
	}
	if b == nil {
		out := s.defaults
		out.UserID = user
		return out, nil
	}
	return *b, nil
}

func (s *Service) SaveBalance(ctx context.Context, b Balance) error {
	if b.CasualLeave.IsNegative() || b.ExtraDays.IsNegative() {
		return fmt.Errorf("%w: balance must not be negative", ErrInvalidInput)
	}
	if err := s.store.SaveBalance(ctx, b); err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

func (s *Service) Export(ctx context.Context, user ledger.UserID) (transfer.Document, error) {
	events, err := s.Events(ctx, user)
	if err != nil {
		return transfer.Document{}, err
	}
	b, err := s.Balance(ctx, user)
	if err != nil {
		return transfer.Document{}, err
	}
	return transfer.Document{
		Events:      ledger.InEventOrder(events),
		CasualLeave: b.CasualLeave,
		ExtraDays:   b.ExtraDays,
	}, nil
}

// Import replaces the user's log and balance with the document. Events get
// fresh ids; references between them are rewritten. The log is stored as
// given, anomalies included, and surface as ledger warnings.
func (s *Service) Import(ctx context.Context, user ledger.UserID, doc transfer.Document) (int, error) {
	if err := s.requireUser(ctx, user); err != nil {
		return 0, err
	}
	events := transfer.Remap(doc.Events, s.newID)
	for i := range events {
		events[i].UserID = user
	}
	b := Balance{UserID: user, CasualLeave: doc.CasualLeave, ExtraDays: doc.ExtraDays}

	if err := s.store.ReplaceEvents(ctx, user, events, b); err != nil {
		return 0, fmt.Errorf("replace events: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user, "events": len(events)}).Info("events imported")
	s.observe(user, ledger.Check(events))
	return len(events), nil
}

func (s *Service) Holidays(ctx context.Context, year int) ([]Holiday, error) {
	hs, err := s.store.ListHolidays(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return hs, nil
}

func (s *Service) AddHoliday(ctx context.Context, day ledger.Date, name string, recurring bool) (Holiday, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Holiday{}, fmt.Errorf("%w: holiday name is required", ErrInvalidInput)
	}
	if day.IsZero() {
		return Holiday{}, fmt.Errorf("%w: holiday date is required", ErrInvalidInput)
	}
	h := &Holiday{Date: day, Name: name, Recurring: recurring}
	if err := s.store.SaveHoliday(ctx, h); err != nil {
		return Holiday{}, fmt.Errorf("save holiday: %w", err)
	}
	return *h, nil
}

func (s *Service) RemoveHoliday(ctx context.Context, id string) error {
	if err := s.store.DeleteHoliday(ctx, id); err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return nil
}
