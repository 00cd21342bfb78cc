/*
handlers.go - HTTP API handlers for the vacation engine

PURPOSE:
  Exposes the request lifecycle via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/login              Exchange credentials for a JWT

  Self-service:
    GET    /api/me/balance              Caller's total/used/remaining
    GET    /api/me/requests             Caller's request history
    POST   /api/requests                Submit a vacation request
    DELETE /api/requests/{id}           Cancel own pending request

  Review (admin):
    GET    /api/requests/pending        Review queue
    POST   /api/requests/{id}/approve   Approve
    POST   /api/requests/{id}/reject    Reject

  Administration (admin):
    GET/POST  /api/users                List / create accounts
    DELETE    /api/users/{id}           Delete account (cascades requests)
    GET/PUT   /api/policy               Weekend-exclusion policy
    POST      /api/admin/reset          Year-end balance reset
    POST      /api/admin/requests/{id}/cancel  Cancel an approved request

ERROR HANDLING:
  Domain errors map to HTTP status by taxonomy:
    400 invalid_date_range, past_date, bad input
    403 forbidden
    404 not_found
    409 overlapping_request, already_reviewed
    422 insufficient_balance (with requested/available/shortfall details)
    500 anything internal

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Bearer-token authentication
  - server.go: Router setup
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/vacation-engine/auth"
	"github.com/warp/vacation-engine/vacation"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      vacation.Store
	Service    *vacation.Service
	Tokens     *auth.TokenManager
	Logger     *zap.Logger
	BcryptCost int

	validate *validator.Validate
}

// NewHandler creates a handler with the given store and lifecycle service.
func NewHandler(store vacation.Store, service *vacation.Service, tokens *auth.TokenManager, logger *zap.Logger, bcryptCost int) *Handler {
	return &Handler{
		Store:      store,
		Service:    service,
		Tokens:     tokens,
		Logger:     logger,
		BcryptCost: bcryptCost,
		validate:   validator.New(),
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login exchanges email/password for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}
	if user == nil || auth.ComparePassword(user.PasswordHash, req.Password) != nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials", Code: "unauthorized"})
		return
	}

	token, expiresAt, err := h.Tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UserID:    string(user.ID),
		Role:      string(user.Role),
	})
}

// =============================================================================
// SELF-SERVICE HANDLERS
// =============================================================================

// GetMyBalance returns the caller's balance counters.
func (h *Handler) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	view, err := h.Service.Balance(r.Context(), caller.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		UserID:    string(view.UserID),
		Total:     view.Total.String(),
		Used:      view.Used.String(),
		Remaining: view.Remaining.String(),
	})
}

// GetMyRequests returns the caller's request history.
func (h *Handler) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	requests, err := h.Service.UserRequests(r.Context(), caller.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// SubmitRequest creates a vacation request for the caller.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	var req SubmitRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	start, err := vacation.ParseDate(req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_date"})
		return
	}
	end, err := vacation.ParseDate(req.EndDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_date"})
		return
	}

	request, err := h.Service.CreateRequest(r.Context(), caller.UserID, start, end, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(request))
}

// CancelRequest deletes the caller's own pending request.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	requestID := vacation.RequestID(chi.URLParam(r, "id"))

	if err := h.Service.CancelRequest(r.Context(), requestID, caller.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REVIEW HANDLERS
// =============================================================================

// ListPendingRequests returns the review queue.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.PendingRequests(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ApproveRequest applies an approve decision.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, vacation.DecisionApprove)
}

// RejectRequest applies a reject decision.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, vacation.DecisionReject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, decision vacation.Decision) {
	caller, _ := CallerFrom(r.Context())
	requestID := vacation.RequestID(chi.URLParam(r, "id"))

	request, err := h.Service.ReviewRequest(r.Context(), requestID, caller.UserID, decision)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// =============================================================================
// USER MANAGEMENT HANDLERS
// =============================================================================

// ListUsers returns all accounts.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser creates an account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	existing, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "email already registered", Code: "conflict"})
		return
	}

	hash, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}

	user := &vacation.User{
		ID:           vacation.NewUserID(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         vacation.Role(req.Role),
		PasswordHash: hash,
		TotalDays:    vacation.DaysOf(req.TotalDays),
		UsedDays:     vacation.DaysOf(0),
	}
	if err := h.Store.SaveUser(r.Context(), user); err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// DeleteUser removes an account and its request history.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := vacation.UserID(chi.URLParam(r, "id"))

	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}
	if user == nil {
		h.writeError(w, vacation.ErrNotFound)
		return
	}

	if err := h.Store.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// GetPolicy returns the active policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Store.GetPolicy(r.Context())
	if err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}
	writeJSON(w, http.StatusOK, PolicyDTO{ExcludeWeekends: policy.ExcludeWeekends})
}

// SetPolicy updates the weekend-exclusion flag. Takes effect for subsequent
// submissions only; stored business-day counts are never recomputed.
func (h *Handler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyDTO
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.Store.SetPolicy(r.Context(), vacation.Policy{ExcludeWeekends: req.ExcludeWeekends}); err != nil {
		h.writeError(w, vacation.ErrInternal)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetBalances performs the destructive year-end reset. It refuses to run
// without the explicit confirm flag.
func (h *Handler) ResetBalances(w http.ResponseWriter, r *http.Request) {
	var req ResetBalancesRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !req.Confirm {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "balance reset requires explicit confirmation",
			Code:  "confirmation_required",
		})
		return
	}

	if err := h.Service.ResetBalances(r.Context(), req.NewTotal, req.ClearHistory); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelApprovedRequest is the administrative override that releases an
// approved request's days back to the owner's balance.
func (h *Handler) CancelApprovedRequest(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	requestID := vacation.RequestID(chi.URLParam(r, "id"))

	if err := h.Service.CancelApproved(r.Context(), requestID, caller.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation_failed"})
		return false
	}
	return true
}

func toRequestDTOs(requests []vacation.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(requests))
	for i := range requests {
		dtos[i] = toRequestDTO(&requests[i])
	}
	return dtos
}

// writeError maps a domain error to its transport representation.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var shortage *vacation.InsufficientBalanceError
	if errors.As(err, &shortage) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: shortage.Error(),
			Code:  "insufficient_balance",
			Details: map[string]string{
				"requested": shortage.Requested.String(),
				"available": shortage.Available.String(),
				"shortfall": shortage.Shortfall.String(),
			},
		})
		return
	}

	var reviewed *vacation.AlreadyReviewedError
	if errors.As(err, &reviewed) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   reviewed.Error(),
			Code:    "already_reviewed",
			Details: map[string]string{"status": string(reviewed.Status)},
		})
		return
	}

	switch {
	case errors.Is(err, vacation.ErrInvalidDateRange):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_date_range"})
	case errors.Is(err, vacation.ErrPastDate):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "past_date"})
	case errors.Is(err, vacation.ErrOverlappingRequest):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "overlapping_request"})
	case errors.Is(err, vacation.ErrForbidden):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "forbidden"})
	case errors.Is(err, vacation.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	default:
		h.Logger.Error("internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
