/*
lifecycle.go - The vacation-request state machine

PURPOSE:
  Orchestrates creation, review, and cancellation of vacation requests,
  composing the calendar arithmetic, the overlap detector, and the balance
  ledger, plus the administrative balance reset.

STATE MACHINE:
  pending (initial) -> approved | rejected (terminal)

  Each request transitions out of pending exactly once. Approval commits the
  request's business days to the user's consumed counter; rejection touches
  no balance. There is no transition out of a terminal state.

CREATE CHECKS (in order):
  1. end >= start                 else InvalidDateRange
  2. start >= today               else PastDate
  3. businessDays >= 1            else InvalidDateRange
  4. no pending/approved overlap  else OverlappingRequest
  5. days fit remaining balance   else InsufficientBalance

CONCURRENCY:
  Checks 3-5 and the persist are a check-then-act sequence over the user's
  (usedDays, request set) pair. The service holds a per-user lock across the
  whole sequence, and across review's status transition + commit, so two
  concurrent submissions with overlapping dates cannot both succeed.
  ResetBalances takes a global write lock and is serialized against every
  in-flight Create/Review.

EVENTS:
  Every successful transition emits an event for the notification
  dispatcher. Emission is fire-and-forget and never fails the operation.

SEE ALSO:
  - calendar.go: BusinessDays
  - ledger.go: Reserve/Commit/Release/ResetAll
  - overlap.go: FindConflict
*/
package vacation

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the request lifecycle engine. Construct with NewService.
type Service struct {
	users      UserStore
	requests   RequestStore
	policies   PolicyStore
	ledger     *Ledger
	detector   *OverlapDetector
	dispatcher Dispatcher
	logger     *zap.Logger

	// now supplies the current civil date; injectable for tests.
	now func() Date

	locks  *userLocks
	global sync.RWMutex
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the current-date source. The past-date rule and
// nothing else depends on it; business-day math never consults a clock.
func WithClock(now func() Date) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, dispatcher Dispatcher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		users:      store,
		requests:   store,
		policies:   store,
		ledger:     NewLedger(store),
		detector:   NewOverlapDetector(store),
		dispatcher: dispatcher,
		logger:     logger,
		now:        Today,
		locks:      newUserLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// CREATE
// =============================================================================

// CreateRequest validates and persists a new pending request for callerID.
// BusinessDays is computed under the policy in effect right now and frozen
// into the request; later policy changes never touch it.
func (s *Service) CreateRequest(ctx context.Context, callerID UserID, start, end Date, reason string) (*Request, error) {
	s.global.RLock()
	defer s.global.RUnlock()

	lock := s.locks.get(callerID)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.loadUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if user.Role != RoleEmployee {
		return nil, ErrForbidden
	}

	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	if start.Before(s.now()) {
		return nil, ErrPastDate
	}

	policy, err := s.policies.GetPolicy(ctx)
	if err != nil {
		return nil, internal("load policy", err)
	}

	businessDays := BusinessDays(start, end, policy.ExcludeWeekends)
	if businessDays == 0 {
		return nil, ErrInvalidDateRange
	}

	conflict, err := s.detector.FindConflict(ctx, callerID, start, end, "")
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &OverlapError{
			UserID:        callerID,
			ConflictingID: conflict.ID,
			Start:         conflict.StartDate,
			End:           conflict.EndDate,
		}
	}

	if err := s.ledger.Reserve(ctx, callerID, businessDays); err != nil {
		return nil, err
	}

	request := &Request{
		ID:           RequestID(uuid.NewString()),
		UserID:       callerID,
		StartDate:    start,
		EndDate:      end,
		BusinessDays: businessDays,
		Status:       StatusPending,
		Reason:       reason,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.requests.SaveRequest(ctx, request); err != nil {
		return nil, internal("persist request", err)
	}

	s.dispatcher.Dispatch(newEvent(EventRequestCreated, callerID, request.ID, map[string]string{
		"start":         start.String(),
		"end":           end.String(),
		"business_days": DaysOf(businessDays).String(),
	}))

	s.logger.Info("request created",
		zap.String("request_id", string(request.ID)),
		zap.String("user_id", string(callerID)),
		zap.Int("business_days", businessDays))

	return request, nil
}

// =============================================================================
// REVIEW
// =============================================================================

// ReviewRequest applies a reviewer's decision to a pending request. Approval
// commits the request's business days to the owner's consumed counter;
// rejection leaves the ledger untouched. Either way the transition happens
// exactly once: a second review returns AlreadyReviewed and causes no
// further ledger mutation. Role checks beyond existence belong to the
// transport layer.
func (s *Service) ReviewRequest(ctx context.Context, requestID RequestID, reviewerID UserID, decision Decision) (*Request, error) {
	s.global.RLock()
	defer s.global.RUnlock()

	// Peek to learn the owner, then redo the status check under the owner's
	// lock: the request may have been decided while we waited.
	peek, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, reviewerID); err != nil {
		return nil, err
	}

	lock := s.locks.get(peek.UserID)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != StatusPending {
		return nil, &AlreadyReviewedError{RequestID: requestID, Status: request.Status}
	}

	if decision == DecisionApprove {
		if err := s.ledger.Commit(ctx, request.UserID, request.BusinessDays); err != nil {
			return nil, err
		}
		request.Status = StatusApproved
	} else {
		request.Status = StatusRejected
	}

	now := time.Now().UTC()
	request.ReviewedBy = &reviewerID
	request.ReviewedAt = &now

	if err := s.requests.SaveRequest(ctx, request); err != nil {
		return nil, internal("persist review", err)
	}

	s.dispatcher.Dispatch(newEvent(EventRequestReviewed, request.UserID, request.ID, map[string]string{
		"decision": string(decision),
		"reviewer": string(reviewerID),
	}))

	s.logger.Info("request reviewed",
		zap.String("request_id", string(request.ID)),
		zap.String("reviewer_id", string(reviewerID)),
		zap.String("decision", string(decision)))

	return request, nil
}

// =============================================================================
// CANCEL
// =============================================================================

// CancelRequest deletes the caller's own pending request. Decided requests
// cannot be cancelled this way; approved ones go through CancelApproved.
func (s *Service) CancelRequest(ctx context.Context, requestID RequestID, callerID UserID) error {
	s.global.RLock()
	defer s.global.RUnlock()

	lock := s.locks.get(callerID)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.UserID != callerID {
		return ErrForbidden
	}
	if request.Status != StatusPending {
		return &AlreadyReviewedError{RequestID: requestID, Status: request.Status}
	}

	if err := s.requests.DeleteRequest(ctx, requestID); err != nil {
		return internal("delete request", err)
	}
	return nil
}

// CancelApproved is the administrative override: it removes an approved
// request and credits its business days back to the owner's balance.
// Pending requests belong to CancelRequest; rejected ones hold no days and
// cannot be cancelled.
func (s *Service) CancelApproved(ctx context.Context, requestID RequestID, adminID UserID) error {
	s.global.RLock()
	defer s.global.RUnlock()

	peek, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}

	lock := s.locks.get(peek.UserID)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.Status != StatusApproved {
		return &AlreadyReviewedError{RequestID: requestID, Status: request.Status}
	}

	if err := s.ledger.Release(ctx, request.UserID, request.BusinessDays); err != nil {
		return err
	}
	if err := s.requests.DeleteRequest(ctx, requestID); err != nil {
		return internal("delete request", err)
	}

	s.logger.Info("approved request cancelled",
		zap.String("request_id", string(requestID)),
		zap.String("admin_id", string(adminID)),
		zap.String("user_id", string(request.UserID)))

	return nil
}

// =============================================================================
// RESET
// =============================================================================

// ResetBalances sets every employee's total to newTotal and used to zero;
// with clearHistory it also removes every stored request. Destructive, no
// undo - the transport layer demands explicit confirmation before calling.
// The global write lock serializes it against all in-flight operations so
// the reset is never partially applied.
func (s *Service) ResetBalances(ctx context.Context, newTotal int, clearHistory bool) error {
	s.global.Lock()
	defer s.global.Unlock()

	if err := s.ledger.ResetAll(ctx, newTotal); err != nil {
		return err
	}
	if clearHistory {
		if err := s.requests.DeleteAllRequests(ctx); err != nil {
			return internal("clear request history", err)
		}
	}

	s.dispatcher.Dispatch(newEvent(EventBalancesReset, "", "", map[string]string{
		"new_total":     DaysOf(newTotal).String(),
		"clear_history": strconv.FormatBool(clearHistory),
	}))

	s.logger.Info("balances reset",
		zap.Int("new_total", newTotal),
		zap.Bool("clear_history", clearHistory))

	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// BalanceView is the user-facing balance summary.
type BalanceView struct {
	UserID    UserID
	Total     Days
	Used      Days
	Remaining Days
}

// Balance returns the user's current counters.
func (s *Service) Balance(ctx context.Context, userID UserID) (*BalanceView, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BalanceView{
		UserID:    u.ID,
		Total:     u.TotalDays,
		Used:      u.UsedDays,
		Remaining: u.Remaining(),
	}, nil
}

// UserRequests lists the user's requests, newest first.
func (s *Service) UserRequests(ctx context.Context, userID UserID) ([]Request, error) {
	requests, err := s.requests.ListRequestsByUser(ctx, userID)
	if err != nil {
		return nil, internal("list requests", err)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

// PendingRequests lists the review queue, oldest first.
func (s *Service) PendingRequests(ctx context.Context) ([]Request, error) {
	requests, err := s.requests.ListPendingRequests(ctx)
	if err != nil {
		return nil, internal("list pending requests", err)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) loadUser(ctx context.Context, id UserID) (*User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, internal("load user", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Service) loadRequest(ctx context.Context, id RequestID) (*Request, error) {
	r, err := s.requests.GetRequest(ctx, id)
	if err != nil {
		return nil, internal("load request", err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}
