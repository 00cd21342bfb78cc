// Package store provides an in-memory vacation.Store for tests and dev.
package store

import (
	"context"
	"sync"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	users    map[vacation.UserID]vacation.User
	requests map[vacation.RequestID]vacation.Request
	policy   *vacation.Policy
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[vacation.UserID]vacation.User),
		requests: make(map[vacation.RequestID]vacation.Request),
	}
}

// =============================================================================
// USER STORE
// =============================================================================

func (m *Memory) GetUser(_ context.Context, id vacation.UserID) (*vacation.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*vacation.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) SaveUser(_ context.Context, u *vacation.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[u.ID] = *u
	return nil
}

func (m *Memory) ListUsers(_ context.Context) ([]vacation.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]vacation.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *Memory) DeleteUser(_ context.Context, id vacation.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, id)
	// Cascade: a deleted user leaves no orphaned requests behind.
	for rid, r := range m.requests {
		if r.UserID == id {
			delete(m.requests, rid)
		}
	}
	return nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func (m *Memory) GetRequest(_ context.Context, id vacation.RequestID) (*vacation.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) SaveRequest(_ context.Context, r *vacation.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[r.ID] = *r
	return nil
}

func (m *Memory) ListRequestsByUser(_ context.Context, userID vacation.UserID) ([]vacation.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []vacation.Request
	for _, r := range m.requests {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *Memory) ListPendingRequests(_ context.Context) ([]vacation.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []vacation.Request
	for _, r := range m.requests {
		if r.Status == vacation.StatusPending {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *Memory) DeleteRequest(_ context.Context, id vacation.RequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.requests, id)
	return nil
}

func (m *Memory) DeleteAllRequests(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = make(map[vacation.RequestID]vacation.Request)
	return nil
}

// =============================================================================
// POLICY STORE
// =============================================================================

func (m *Memory) GetPolicy(_ context.Context) (vacation.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.policy == nil {
		return vacation.DefaultPolicy(), nil
	}
	return *m.policy, nil
}

func (m *Memory) SetPolicy(_ context.Context, p vacation.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.policy = &p
	return nil
}
