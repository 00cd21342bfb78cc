/*
stores.go - Persistence interfaces for users, requests, and policy

PURPOSE:
  Defines the interface between the domain logic and the database. The engine
  depends on these abstractions, never on a storage technology. Different
  implementations can use SQLite or in-memory maps.

KEY INTERFACES:
  UserStore:    Account records and balance counters
  RequestStore: Vacation requests
  PolicyStore:  The single process-wide policy record
  Store:        All three, for implementations that back everything

LOOKUP CONTRACT:
  GetUser/GetRequest return (nil, nil) when the record doesn't exist.
  Mapping absence to ErrNotFound is the caller's job; stores never invent
  domain errors.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - vacation/store: in-memory store for tests and dev
*/
package vacation

import "context"

// UserStore persists accounts. SaveUser is an upsert; balance mutations go
// through it so implementations can keep writes atomic per user.
type UserStore interface {
	GetUser(ctx context.Context, id UserID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SaveUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context) ([]User, error)

	// DeleteUser removes the account and cascade-deletes its requests.
	DeleteUser(ctx context.Context, id UserID) error
}

// RequestStore persists vacation requests.
type RequestStore interface {
	GetRequest(ctx context.Context, id RequestID) (*Request, error)
	SaveRequest(ctx context.Context, r *Request) error
	ListRequestsByUser(ctx context.Context, userID UserID) ([]Request, error)
	ListPendingRequests(ctx context.Context) ([]Request, error)
	DeleteRequest(ctx context.Context, id RequestID) error

	// DeleteAllRequests clears history for every user. Used only by the
	// administrative balance reset.
	DeleteAllRequests(ctx context.Context) error
}

// PolicyStore holds the single policy record. Implementations return
// DefaultPolicy until a policy has been stored.
type PolicyStore interface {
	GetPolicy(ctx context.Context) (Policy, error)
	SetPolicy(ctx context.Context, p Policy) error
}

// Store is the full persistence surface the engine needs.
type Store interface {
	UserStore
	RequestStore
	PolicyStore
}
