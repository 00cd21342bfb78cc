/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements vacation.Store (users, requests, policy) using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  users:    Accounts with role and total/used day counters
  requests: Vacation requests with their frozen business-day counts
  policy:   Single-row process-wide configuration

CASCADE:
  requests.user_id references users(id) ON DELETE CASCADE, so deleting a
  user removes their request history in the same statement.

DAY COUNTERS:
  Balance columns are stored as decimal strings (shopspring/decimal), never
  as floats, to keep accounting exact.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Check-then-act serialization per user
  is the lifecycle's job; the store only guarantees statement-level safety.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/vacation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - vacation/stores.go: Interface definitions
  - vacation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/vacation-engine/vacation"
)

// Store implements vacation.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
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

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		total_days TEXT NOT NULL DEFAULT '0',
		used_days TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		business_days INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		reviewed_by TEXT,
		reviewed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user
		ON requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);

	-- Overlap checks scan a user's non-rejected requests by range (hot path)
	CREATE INDEX IF NOT EXISTS idx_requests_user_dates
		ON requests(user_id, start_date, end_date);

	-- Single-row configuration record
	CREATE TABLE IF NOT EXISTS policy (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		exclude_weekends BOOLEAN NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USER STORE (vacation.UserStore interface)
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u *vacation.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, name, email, role, password_hash, total_days, used_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			password_hash = excluded.password_hash,
			total_days = excluded.total_days,
			used_days = excluded.used_days
	`

	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Role, u.PasswordHash,
		u.TotalDays.String(), u.UsedDays.String(),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id vacation.UserID) (*vacation.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUser(ctx, "WHERE id = ?", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*vacation.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUser(ctx, "WHERE email = ?", email)
}

func (s *Store) queryUser(ctx context.Context, where string, arg any) (*vacation.User, error) {
	query := `
		SELECT id, name, email, role, password_hash, total_days, used_days, created_at
		FROM users ` + where

	row := s.db.QueryRowContext(ctx, query, arg)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]vacation.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, email, role, password_hash, total_days, used_days, created_at
		FROM users ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []vacation.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id vacation.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Requests cascade via the foreign key.
	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func scanUser(scan func(dest ...any) error) (*vacation.User, error) {
	var u vacation.User
	var total, used, createdAt string

	if err := scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &total, &used, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if u.TotalDays, err = vacation.ParseDays(total); err != nil {
		return nil, err
	}
	if u.UsedDays, err = vacation.ParseDays(used); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// =============================================================================
// REQUEST STORE (vacation.RequestStore interface)
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, r *vacation.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO requests
			(id, user_id, start_date, end_date, business_days, status, reason, created_at, reviewed_by, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			reviewed_by = excluded.reviewed_by,
			reviewed_at = excluded.reviewed_at
	`

	var reviewedBy sql.NullString
	if r.ReviewedBy != nil {
		reviewedBy = sql.NullString{String: string(*r.ReviewedBy), Valid: true}
	}
	var reviewedAt sql.NullString
	if r.ReviewedAt != nil {
		reviewedAt = sql.NullString{String: r.ReviewedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.UserID,
		r.StartDate.String(), r.EndDate.String(),
		r.BusinessDays, r.Status, r.Reason,
		r.CreatedAt.UTC().Format(time.RFC3339),
		reviewedBy, reviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id vacation.RequestID) (*vacation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRequests + " WHERE id = ?"
	requests, err := s.queryRequests(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID vacation.UserID) ([]vacation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRequests + " WHERE user_id = ? ORDER BY start_date ASC"
	return s.queryRequests(ctx, query, userID)
}

func (s *Store) ListPendingRequests(ctx context.Context) ([]vacation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRequests + " WHERE status = ? ORDER BY created_at ASC"
	return s.queryRequests(ctx, query, vacation.StatusPending)
}

func (s *Store) DeleteRequest(ctx context.Context, id vacation.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM requests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

func (s *Store) DeleteAllRequests(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM requests")
	if err != nil {
		return fmt.Errorf("failed to delete requests: %w", err)
	}
	return nil
}

const selectRequests = `
	SELECT id, user_id, start_date, end_date, business_days, status, reason, created_at, reviewed_by, reviewed_at
	FROM requests
`

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]vacation.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []vacation.Request
	for rows.Next() {
		var r vacation.Request
		var start, end, createdAt string
		var reviewedBy, reviewedAt sql.NullString

		if err := rows.Scan(&r.ID, &r.UserID, &start, &end, &r.BusinessDays,
			&r.Status, &r.Reason, &createdAt, &reviewedBy, &reviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}

		if r.StartDate, err = vacation.ParseDate(start); err != nil {
			return nil, err
		}
		if r.EndDate, err = vacation.ParseDate(end); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		if reviewedBy.Valid {
			id := vacation.UserID(reviewedBy.String)
			r.ReviewedBy = &id
		}
		if reviewedAt.Valid {
			t, _ := time.Parse(time.RFC3339, reviewedAt.String)
			r.ReviewedAt = &t
		}

		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// =============================================================================
// POLICY STORE (vacation.PolicyStore interface)
// =============================================================================

func (s *Store) GetPolicy(ctx context.Context) (vacation.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exclude bool
	err := s.db.QueryRowContext(ctx,
		"SELECT exclude_weekends FROM policy WHERE id = 1",
	).Scan(&exclude)
	if err == sql.ErrNoRows {
		return vacation.DefaultPolicy(), nil
	}
	if err != nil {
		return vacation.Policy{}, fmt.Errorf("failed to get policy: %w", err)
	}
	return vacation.Policy{ExcludeWeekends: exclude}, nil
}

func (s *Store) SetPolicy(ctx context.Context, p vacation.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO policy (id, exclude_weekends, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			exclude_weekends = excluded.exclude_weekends,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, p.ExcludeWeekends, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to set policy: %w", err)
	}
	return nil
}
