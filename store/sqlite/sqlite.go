/*
Package sqlite provides a SQLite-backed tracker.Store.

PURPOSE:
  Persists users, calendar events, starting balances and public holidays.
  Nothing derived is stored: balances and credit lists are recomputed by
  the ledger from the events table on every read.

KEY TABLES:
  users:          login identities (email unique, case-insensitive)
  events:         the per-user event log, one row per calendar entry
  leave_balance:  declared starting balance (decimal strings)
  holidays:       public holidays, optionally recurring

EVENTS COLUMNS:
  Column names follow the web client's wire format: event_date, type,
  leave_type, consumed_leave_id, is_month_claim. Ids are TEXT (uuid for new
  rows, anything for imported ones) so legacy numeric ids survive an import.

CLAIM:
  ClaimEvents is one UPDATE inside a transaction:
    UPDATE events SET is_month_claim = 1
    WHERE user_id = ? AND id IN (...) AND type = 'extraDay' AND is_month_claim = 0
  Rows affected is the claim count, so claiming twice reports 0.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to a
  single connection; every pooled connection would otherwise see its own
  empty database.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): readers don't block the writer.

USAGE:
  store, err := sqlite.New("./leavecal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := tracker.NewService(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - tracker/store.go: Interface definition
  - store/memory: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/tracker"
)

// Store implements tracker.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ tracker.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL COLLATE NOCASE UNIQUE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Event log
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		event_date TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		leave_type TEXT,
		consumed_leave_id TEXT,
		is_month_claim BOOLEAN NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_user_date
		ON events(user_id, event_date DESC);
	CREATE INDEX IF NOT EXISTS idx_events_consumed
		ON events(consumed_leave_id) WHERE consumed_leave_id IS NOT NULL;

	-- Declared starting balance
	CREATE TABLE IF NOT EXISTS leave_balance (
		user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		casual_leave TEXT NOT NULL,
		extra_days TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Public holidays, one per date
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a database transaction. Callers hold s.mu.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) FindUser(ctx context.Context, email, name string) (*tracker.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE email = ? AND name = ?`,
		email, name)
	return scanUser(row)
}

func (s *Store) GetUser(ctx context.Context, id ledger.UserID) (*tracker.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*tracker.User, error) {
	var u tracker.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *tracker.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`,
		u.Email, u.Name, u.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueConstraintError(err) {
			return tracker.ErrUserExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = ledger.UserID(id)
	return nil
}

// =============================================================================
// EVENTS
// =============================================================================

const eventColumns = `id, user_id, event_date, title, description, type,
	leave_type, consumed_leave_id, is_month_claim, created_at`

// ListEvents returns the user's events newest date first.
func (s *Store) ListEvents(ctx context.Context, user ledger.UserID) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = ?
		 ORDER BY event_date DESC, created_at ASC, id ASC`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) GetEvent(ctx context.Context, id ledger.EventID) (*ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = ledger.EventID(uuid.NewString())
	}
	e.CreatedAt = time.Now().UTC()
	return insertEvent(ctx, s.db, *e)
}

func insertEvent(ctx context.Context, db execer, e ledger.Event) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID),
		e.UserID,
		e.Date.String(),
		e.Title,
		e.Description,
		string(e.Kind),
		nullString(string(e.LeaveSource)),
		nullRef(e.ConsumedCreditID),
		e.Claimed,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// UpdateEvent rewrites the mutable columns. user_id and created_at stay.
func (s *Store) UpdateEvent(ctx context.Context, e ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET event_date = ?, title = ?, description = ?, type = ?,
		    leave_type = ?, consumed_leave_id = ?, is_month_claim = ?
		WHERE id = ?`,
		e.Date.String(),
		e.Title,
		e.Description,
		string(e.Kind),
		nullString(string(e.LeaveSource)),
		nullRef(e.ConsumedCreditID),
		e.Claimed,
		string(e.ID),
	)
	if err != nil {
		return err
	}
	return expectRow(res, tracker.ErrEventNotFound)
}

func (s *Store) DeleteEvent(ctx context.Context, id ledger.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	return expectRow(res, tracker.ErrEventNotFound)
}

// ClaimEvents flips unclaimed extra days of the user and reports how many
// rows changed.
func (s *Store) ClaimEvents(ctx context.Context, user ledger.UserID, ids []ledger.EventID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, user)
	for _, id := range ids {
		args = append(args, string(id))
	}

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE events SET is_month_claim = 1
			WHERE user_id = ? AND id IN (`+placeholders+`)
			  AND type = 'extraDay' AND is_month_claim = 0`, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *Store) ClearEvents(ctx context.Context, user ledger.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM events WHERE user_id = ?", user)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// ReplaceEvents swaps the user's whole log and balance in one transaction.
func (s *Store) ReplaceEvents(ctx context.Context, user ledger.UserID, events []ledger.Event, balance tracker.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE user_id = ?", user); err != nil {
			return err
		}
		for _, e := range events {
			e.UserID = user
			if e.ID == "" {
				e.ID = ledger.EventID(uuid.NewString())
			}
			if e.CreatedAt.IsZero() {
				e.CreatedAt = now
			}
			if err := insertEvent(ctx, tx, e); err != nil {
				return fmt.Errorf("insert event %s: %w", e.ID, err)
			}
		}
		balance.UserID = user
		return saveBalance(ctx, tx, balance)
	})
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (ledger.Event, error) {
	var e ledger.Event
	var id, date, kind, createdAt string
	var source, ref sql.NullString

	err := row.Scan(&id, &e.UserID, &date, &e.Title, &e.Description, &kind,
		&source, &ref, &e.Claimed, &createdAt)
	if err != nil {
		return ledger.Event{}, err
	}

	e.ID = ledger.EventID(id)
	e.Kind = ledger.Kind(kind)
	e.LeaveSource = ledger.LeaveSource(source.String)
	if ref.Valid && ref.String != "" {
		e.ConsumedCreditID = ledger.EventID(ref.String).Ref()
	}
	if e.Date, err = ledger.ParseDate(date); err != nil {
		return ledger.Event{}, fmt.Errorf("event %s: %w", id, err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return e, nil
}

// =============================================================================
// BALANCE
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, user ledger.UserID) (*tracker.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var casual, extra string
	err := s.db.QueryRowContext(ctx,
		`SELECT casual_leave, extra_days FROM leave_balance WHERE user_id = ?`, user).
		Scan(&casual, &extra)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b := &tracker.Balance{UserID: user}
	if b.CasualLeave, err = decimal.NewFromString(casual); err != nil {
		return nil, fmt.Errorf("casual_leave: %w", err)
	}
	if b.ExtraDays, err = decimal.NewFromString(extra); err != nil {
		return nil, fmt.Errorf("extra_days: %w", err)
	}
	return b, nil
}

func (s *Store) SaveBalance(ctx context.Context, b tracker.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBalance(ctx, s.db, b)
}

func saveBalance(ctx context.Context, db execer, b tracker.Balance) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO leave_balance (user_id, casual_leave, extra_days, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			casual_leave = excluded.casual_leave,
			extra_days = excluded.extra_days,
			updated_at = excluded.updated_at`,
		b.UserID,
		b.CasualLeave.String(),
		b.ExtraDays.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// ListHolidays returns the holidays of a year, recurring ones moved into it.
// Year 0 returns every stored holiday unchanged.
func (s *Store) ListHolidays(ctx context.Context, year int) ([]tracker.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, date, name, recurring FROM holidays`
	var args []any
	if year != 0 {
		query += ` WHERE recurring = 1 OR strftime('%Y', date) = ?`
		args = append(args, fmt.Sprintf("%04d", year))
	}
	query += ` ORDER BY strftime('%m-%d', date) ASC, date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []tracker.Holiday
	for rows.Next() {
		var h tracker.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		if h.Date, err = ledger.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		if h.Recurring && year != 0 {
			h.Date = ledger.NewDate(year, h.Date.Month(), h.Date.Day())
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SaveHoliday upserts by date and sets h.ID to the stored row's id.
func (s *Store) SaveHoliday(ctx context.Context, h *tracker.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := h.ID
	if id == "" {
		id = uuid.NewString()
	}
	return s.db.QueryRowContext(ctx, `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			name = excluded.name,
			recurring = excluded.recurring
		RETURNING id`,
		id,
		h.Date.String(),
		h.Name,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&h.ID)
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectRow(res, tracker.ErrHolidayNotFound)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullRef(ref *ledger.EventID) sql.NullString {
	if ref == nil {
		return sql.NullString{}
	}
	return nullString(string(*ref))
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
