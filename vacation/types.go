/*
Package vacation implements the vacation-request lifecycle and balance engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking paid
  time off: employees submit date-range requests against a finite annual
  balance, administrators approve or reject them, and the per-user
  consumed-days counter stays consistent with the set of approved requests.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A civil calendar date (no time-of-day, no timezone)
  - Days: A day quantity backed by decimal.Decimal
  - User: An employee or administrator with a vacation balance
  - Request: A date-range vacation request with a pending/approved/rejected status
  - Policy: The process-wide weekend-exclusion flag

DESIGN PRINCIPLES:
  1. Civil dates: all comparisons operate on YYYY-MM-DD dates in UTC
  2. Precision: balances use decimal.Decimal to avoid floating-point errors
  3. Immutability: a request's dates and business-day count never change
     after creation; only its status transitions
  4. Type safety: strong typing for user and request identifiers

SEE ALSO:
  - calendar.go: Business-day arithmetic
  - ledger.go: Balance accounting
  - lifecycle.go: The request state machine
*/
package vacation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Civil calendar date
// =============================================================================

// Date is a calendar date with day granularity, normalized to UTC midnight.
// All business rules operate on civil dates; time-of-day never matters.
type Date struct {
	t time.Time
}

// NewDate constructs a Date for the given year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its civil date (in UTC).
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return Date{t: t}, nil
}

// Today returns the current civil date.
func Today() Date {
	return DateOf(time.Now())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsWeekend() bool {
	wd := d.t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsZero() bool    { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// =============================================================================
// DAYS - Day quantity
// =============================================================================

// Days is a quantity of vacation days. Request sizing is always whole days,
// but balances stay decimal so fractional grants remain representable.
type Days struct {
	value decimal.Decimal
}

// DaysOf constructs a whole-day quantity.
func DaysOf(n int) Days {
	return Days{value: decimal.NewFromInt(int64(n))}
}

// ParseDays parses a decimal day quantity, e.g. from storage.
func ParseDays(s string) (Days, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Days{}, fmt.Errorf("invalid day quantity %q: %w", s, err)
	}
	return Days{value: v}, nil
}

func (d Days) Add(o Days) Days         { return Days{value: d.value.Add(o.value)} }
func (d Days) Sub(o Days) Days         { return Days{value: d.value.Sub(o.value)} }
func (d Days) IsNegative() bool        { return d.value.IsNegative() }
func (d Days) IsZero() bool            { return d.value.IsZero() }
func (d Days) LessThan(o Days) bool    { return d.value.LessThan(o.value) }
func (d Days) GreaterThan(o Days) bool { return d.value.GreaterThan(o.value) }
func (d Days) Equal(o Days) bool       { return d.value.Equal(o.value) }
func (d Days) Int() int                { return int(d.value.IntPart()) }
func (d Days) String() string          { return d.value.String() }

// =============================================================================
// IDENTIFIERS AND ENUMERATIONS
// =============================================================================

type UserID string
type RequestID string

// NewUserID mints a fresh user identifier.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

// Role determines what a caller may do. Administrators review requests and
// manage users/policy; employees own balances and submit requests.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Status is the request lifecycle state. Pending is the only initial state;
// approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is a reviewer's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// =============================================================================
// USER
// =============================================================================

// User is an account known to the engine. Balance fields are meaningful for
// employees only; UsedDays is mutated exclusively by the request lifecycle.
type User struct {
	ID           UserID
	Name         string
	Email        string
	Role         Role
	PasswordHash string

	TotalDays Days
	UsedDays  Days

	CreatedAt time.Time
}

// Remaining returns the balance still available for new requests.
func (u *User) Remaining() Days {
	return u.TotalDays.Sub(u.UsedDays)
}

// =============================================================================
// REQUEST
// =============================================================================

// Request is a vacation request over an inclusive date range.
//
// BusinessDays is computed once at creation time, under the policy in effect
// at submission, and is never recomputed. A correction requires cancelling
// and resubmitting. After creation the only permitted mutation is the single
// status transition out of pending.
type Request struct {
	ID     RequestID
	UserID UserID

	StartDate    Date
	EndDate      Date
	BusinessDays int

	Status Status
	Reason string

	CreatedAt  time.Time
	ReviewedBy *UserID
	ReviewedAt *time.Time
}

// Active reports whether the request still blocks the date range: rejected
// requests never conflict with new submissions.
func (r *Request) Active() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}

// =============================================================================
// POLICY
// =============================================================================

// Policy is the process-wide configuration read by every business-day
// computation. Changing it affects subsequent submissions only; stored
// BusinessDays values are never recomputed.
type Policy struct {
	ExcludeWeekends bool
}

// DefaultPolicy excludes weekends, the common arrangement.
func DefaultPolicy() Policy {
	return Policy{ExcludeWeekends: true}
}
