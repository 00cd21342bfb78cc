/*
ledger.go - Per-user vacation-day accounting

PURPOSE:
  Tracks total/used/remaining day counters per employee and exposes the
  balance operations the request lifecycle composes:

    Remaining:  totalDays - usedDays
    Reserve:    advisory sufficiency check at request-creation time
    Commit:     consume days on approval
    Release:    credit days back when an approved request is cancelled
    ResetAll:   administrative year-end bulk reset

PENDING vs CONFIRMED:
  A pending request does not consume balance. Reserve only verifies that the
  requested days fit the current remaining balance; usedDays moves when the
  request is approved (Commit). Serialization against concurrent requests for
  the same user is the lifecycle's job, not the ledger's.

INVARIANT:
  usedDays never goes negative: Release floors at zero rather than
  underflowing when it credits days back.
*/
package vacation

import "context"

// Ledger performs balance accounting on top of a UserStore.
type Ledger struct {
	users UserStore
}

func NewLedger(users UserStore) *Ledger {
	return &Ledger{users: users}
}

// Remaining returns the user's available balance.
func (l *Ledger) Remaining(ctx context.Context, userID UserID) (Days, error) {
	u, err := l.load(ctx, userID)
	if err != nil {
		return Days{}, err
	}
	return u.Remaining(), nil
}

// Reserve checks that the requested days fit the remaining balance. It does
// not mutate usedDays: the reservation is advisory and becomes real only on
// Commit. On shortage it returns an InsufficientBalanceError carrying the
// requested/available/shortfall amounts.
func (l *Ledger) Reserve(ctx context.Context, userID UserID, days int) error {
	u, err := l.load(ctx, userID)
	if err != nil {
		return err
	}

	requested := DaysOf(days)
	available := u.Remaining()
	if available.LessThan(requested) {
		return &InsufficientBalanceError{
			UserID:    userID,
			Requested: requested,
			Available: available,
			Shortfall: requested.Sub(available),
		}
	}
	return nil
}

// Commit consumes days on approval. Idempotency against double-invocation
// for the same request is guaranteed by the lifecycle's single-transition
// rule, not here.
func (l *Ledger) Commit(ctx context.Context, userID UserID, days int) error {
	u, err := l.load(ctx, userID)
	if err != nil {
		return err
	}

	u.UsedDays = u.UsedDays.Add(DaysOf(days))
	if err := l.users.SaveUser(ctx, u); err != nil {
		return internal("commit balance", err)
	}
	return nil
}

// Release credits days back when an approved request is cancelled by an
// administrator or cleared at year end. The counter floors at zero.
func (l *Ledger) Release(ctx context.Context, userID UserID, days int) error {
	u, err := l.load(ctx, userID)
	if err != nil {
		return err
	}

	u.UsedDays = u.UsedDays.Sub(DaysOf(days))
	if u.UsedDays.IsNegative() {
		u.UsedDays = DaysOf(0)
	}
	if err := l.users.SaveUser(ctx, u); err != nil {
		return internal("release balance", err)
	}
	return nil
}

// ResetAll sets every employee's total to newTotal and used to zero.
// History clearing, confirmation prompts, and serialization against
// in-flight operations all live upstream in the lifecycle.
func (l *Ledger) ResetAll(ctx context.Context, newTotal int) error {
	users, err := l.users.ListUsers(ctx)
	if err != nil {
		return internal("list users for reset", err)
	}

	total := DaysOf(newTotal)
	for i := range users {
		u := &users[i]
		if u.Role != RoleEmployee {
			continue
		}
		u.TotalDays = total
		u.UsedDays = DaysOf(0)
		if err := l.users.SaveUser(ctx, u); err != nil {
			return internal("reset balance", err)
		}
	}
	return nil
}

func (l *Ledger) load(ctx context.Context, userID UserID) (*User, error) {
	u, err := l.users.GetUser(ctx, userID)
	if err != nil {
		return nil, internal("load user", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}
