/*
store.go - Persistence interface behind the tracker service

PURPOSE:
  Defines what the service needs from a database: per-user event CRUD, the
  claim transition, bulk replace/clear for import and reset, the starting
  balance, the user lookup behind login and the holiday calendar.

CONTRACT:
  - Lookups return (nil, nil) when the record does not exist.
  - UpdateEvent/DeleteEvent return ErrEventNotFound for unknown ids,
    DeleteHoliday returns ErrHolidayNotFound.
  - CreateUser returns ErrUserExists when the email is taken.
  - CreateEvent assigns ID (when empty) and CreatedAt on the passed event.
  - ClaimEvents, ClearEvents and ReplaceEvents are atomic and scoped to one
    user; ClaimEvents only flips unclaimed extra days and reports how many
    rows changed.
  - ListHolidays(year) returns that year's holidays, recurring ones moved
    into the year; year 0 lists everything as stored. SaveHoliday upserts
    by date.
  - The store never derives anything. Balances come from ledger.Derive.

IMPLEMENTATIONS:
  - store/sqlite: SQLite, production
  - store/memory: in-memory, tests and --memory runs
  - MockStore (store_mock.go): gomock, service unit tests

SEE ALSO:
  - service.go: the only consumer
*/
package tracker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-calendar/ledger"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=tracker
type Store interface {
	Ping(ctx context.Context) error

	FindUser(ctx context.Context, email, name string) (*User, error)
	GetUser(ctx context.Context, id ledger.UserID) (*User, error)
	CreateUser(ctx context.Context, u *User) error

	ListEvents(ctx context.Context, user ledger.UserID) ([]ledger.Event, error)
	GetEvent(ctx context.Context, id ledger.EventID) (*ledger.Event, error)
	CreateEvent(ctx context.Context, e *ledger.Event) error
	UpdateEvent(ctx context.Context, e ledger.Event) error
	DeleteEvent(ctx context.Context, id ledger.EventID) error

	ClaimEvents(ctx context.Context, user ledger.UserID, ids []ledger.EventID) (int, error)
	ClearEvents(ctx context.Context, user ledger.UserID) (int, error)
	ReplaceEvents(ctx context.Context, user ledger.UserID, events []ledger.Event, balance Balance) error

	GetBalance(ctx context.Context, user ledger.UserID) (*Balance, error)
	SaveBalance(ctx context.Context, b Balance) error

	ListHolidays(ctx context.Context, year int) ([]Holiday, error)
	SaveHoliday(ctx context.Context, h *Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
}

// =============================================================================
// RECORDS
// =============================================================================

type User struct {
	ID        ledger.UserID
	Email     string
	Name      string
	CreatedAt time.Time
}

// Balance is the starting entitlement a user declared, not a derived value.
type Balance struct {
	UserID      ledger.UserID
	CasualLeave decimal.Decimal
	ExtraDays   decimal.Decimal
}

// Holiday is a public holiday shown alongside a day's events. A recurring
// holiday falls on the same month and day every year.
type Holiday struct {
	ID        string
	Date      ledger.Date
	Name      string
	Recurring bool
}
