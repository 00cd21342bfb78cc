package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/vacation-engine/auth"
	"github.com/warp/vacation-engine/vacation"
	"github.com/warp/vacation-engine/vacation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type env struct {
	handler *Handler
	server  http.Handler
	mem     *store.Memory
	tokens  *auth.TokenManager
}

// newEnv wires the full router over the in-memory store with the clock
// pinned to Monday 2026-06-01.
func newEnv(t *testing.T) *env {
	t.Helper()

	mem := store.NewMemory()
	logger := zap.NewNop()
	svc := vacation.NewService(mem, vacation.NopDispatcher{}, logger,
		vacation.WithClock(func() vacation.Date { return vacation.NewDate(2026, time.June, 1) }))
	tokens := auth.NewTokenManager("test-secret", 60)

	h := NewHandler(mem, svc, tokens, logger, bcrypt.MinCost)
	return &env{
		handler: h,
		server:  NewRouter(h, tokens, nil),
		mem:     mem,
		tokens:  tokens,
	}
}

func (e *env) seedUser(t *testing.T, id vacation.UserID, role vacation.Role, total, used int) {
	t.Helper()
	hash, err := auth.HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	err = e.mem.SaveUser(context.Background(), &vacation.User{
		ID:           id,
		Name:         "User " + string(id),
		Email:        string(id) + "@example.com",
		Role:         role,
		PasswordHash: hash,
		TotalDays:    vacation.DaysOf(total),
		UsedDays:     vacation.DaysOf(used),
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
}

func (e *env) tokenFor(t *testing.T, id vacation.UserID, role vacation.Role) string {
	t.Helper()
	token, _, err := e.tokens.GenerateToken(id, role)
	require.NoError(t, err)
	return token
}

// do executes a request against the router, marshaling body when non-nil and
// attaching the bearer token when non-empty.
func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// =============================================================================
// AUTH
// =============================================================================

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "emp-1@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[TokenResponse](t, rec)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "emp-1", resp.UserID)
	assert.Equal(t, "employee", resp.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "emp-1@example.com",
		Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MissingToken(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/me/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_EmployeeCannotReachAdminRoutes(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	token := e.tokenFor(t, "emp-1", vacation.RoleEmployee)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/requests/pending"},
		{http.MethodPost, "/api/requests/some-id/approve"},
		{http.MethodGet, "/api/users"},
		{http.MethodPost, "/api/admin/reset"},
	} {
		rec := e.do(t, route.method, route.path, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", route.method, route.path)
	}
}

// =============================================================================
// REQUEST LIFECYCLE OVER HTTP
// =============================================================================

func TestSubmitAndApprove_EndToEnd(t *testing.T) {
	// GIVEN: An employee with 25 days and an administrator
	// WHEN: The employee submits Mon-Fri and the admin approves it
	// THEN: The request moves pending -> approved and the balance shows used=5

	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	e.seedUser(t, "admin-1", vacation.RoleAdmin, 0, 0)
	empToken := e.tokenFor(t, "emp-1", vacation.RoleEmployee)
	adminToken := e.tokenFor(t, "admin-1", vacation.RoleAdmin)

	rec := e.do(t, http.MethodPost, "/api/requests", empToken, SubmitRequestDTO{
		StartDate: "2026-06-01",
		EndDate:   "2026-06-05",
		Reason:    "summer break",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decodeBody[RequestDTO](t, rec)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 5, created.BusinessDays)

	rec = e.do(t, http.MethodGet, "/api/requests/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decodeBody[[]RequestDTO](t, rec)
	require.Len(t, queue, 1)
	assert.Equal(t, created.ID, queue[0].ID)

	rec = e.do(t, http.MethodPost, "/api/requests/"+created.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decodeBody[RequestDTO](t, rec)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, "admin-1", approved.ReviewedBy)
	assert.NotEmpty(t, approved.ReviewedAt)

	rec = e.do(t, http.MethodGet, "/api/me/balance", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decodeBody[BalanceDTO](t, rec)
	assert.Equal(t, "5", balance.Used)
	assert.Equal(t, "20", balance.Remaining)
}

func TestSubmit_InsufficientBalance_Maps422(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 22)
	token := e.tokenFor(t, "emp-1", vacation.RoleEmployee)

	rec := e.do(t, http.MethodPost, "/api/requests", token, SubmitRequestDTO{
		StartDate: "2026-06-01",
		EndDate:   "2026-06-05",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "insufficient_balance", resp.Code)
	assert.Equal(t, "5", resp.Details["requested"])
	assert.Equal(t, "3", resp.Details["available"])
	assert.Equal(t, "2", resp.Details["shortfall"])
}

func TestSubmit_Overlap_Maps409(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	token := e.tokenFor(t, "emp-1", vacation.RoleEmployee)

	first := e.do(t, http.MethodPost, "/api/requests", token, SubmitRequestDTO{
		StartDate: "2026-06-10", EndDate: "2026-06-14",
	})
	require.Equal(t, http.StatusCreated, first.Code)

	rec := e.do(t, http.MethodPost, "/api/requests", token, SubmitRequestDTO{
		StartDate: "2026-06-12", EndDate: "2026-06-16",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "overlapping_request", decodeBody[ErrorResponse](t, rec).Code)
}

func TestSubmit_PastDate_Maps400(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	token := e.tokenFor(t, "emp-1", vacation.RoleEmployee)

	rec := e.do(t, http.MethodPost, "/api/requests", token, SubmitRequestDTO{
		StartDate: "2026-05-28", EndDate: "2026-06-03",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "past_date", decodeBody[ErrorResponse](t, rec).Code)
}

func TestSubmit_MalformedDate_Maps400(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	token := e.tokenFor(t, "emp-1", vacation.RoleEmployee)

	rec := e.do(t, http.MethodPost, "/api/requests", token, SubmitRequestDTO{
		StartDate: "June 1st", EndDate: "2026-06-05",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReview_SecondApprove_Maps409(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	e.seedUser(t, "admin-1", vacation.RoleAdmin, 0, 0)
	empToken := e.tokenFor(t, "emp-1", vacation.RoleEmployee)
	adminToken := e.tokenFor(t, "admin-1", vacation.RoleAdmin)

	created := decodeBody[RequestDTO](t, e.do(t, http.MethodPost, "/api/requests", empToken, SubmitRequestDTO{
		StartDate: "2026-06-01", EndDate: "2026-06-05",
	}))

	require.Equal(t, http.StatusOK,
		e.do(t, http.MethodPost, "/api/requests/"+created.ID+"/approve", adminToken, nil).Code)

	rec := e.do(t, http.MethodPost, "/api/requests/"+created.ID+"/reject", adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "already_reviewed", resp.Code)
	assert.Equal(t, "approved", resp.Details["status"])
}

func TestCancelOwnPending(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	token := e.tokenFor(t, "emp-1", vacation.RoleEmployee)

	created := decodeBody[RequestDTO](t, e.do(t, http.MethodPost, "/api/requests", token, SubmitRequestDTO{
		StartDate: "2026-06-01", EndDate: "2026-06-05",
	}))

	rec := e.do(t, http.MethodDelete, "/api/requests/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	history := decodeBody[[]RequestDTO](t, e.do(t, http.MethodGet, "/api/me/requests", token, nil))
	assert.Empty(t, history)
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

func TestCreateUser_Validation(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "admin-1", vacation.RoleAdmin, 0, 0)
	token := e.tokenFor(t, "admin-1", vacation.RoleAdmin)

	rec := e.do(t, http.MethodPost, "/api/users", token, CreateUserRequest{
		Name: "New Hire", Email: "hire@example.com", Password: "short", Role: "employee", TotalDays: 25,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "password shorter than 8 chars")

	rec = e.do(t, http.MethodPost, "/api/users", token, CreateUserRequest{
		Name: "New Hire", Email: "hire@example.com", Password: "password123", Role: "manager", TotalDays: 25,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown role")
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "admin-1", vacation.RoleAdmin, 0, 0)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	token := e.tokenFor(t, "admin-1", vacation.RoleAdmin)

	rec := e.do(t, http.MethodPost, "/api/users", token, CreateUserRequest{
		Name: "Imposter", Email: "emp-1@example.com", Password: "password123", Role: "employee", TotalDays: 25,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResetBalances_RequiresConfirmation(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "admin-1", vacation.RoleAdmin, 0, 0)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 20)
	token := e.tokenFor(t, "admin-1", vacation.RoleAdmin)

	rec := e.do(t, http.MethodPost, "/api/admin/reset", token, ResetBalancesRequest{
		NewTotal: 30, ClearHistory: true,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "confirmation_required", decodeBody[ErrorResponse](t, rec).Code)

	rec = e.do(t, http.MethodPost, "/api/admin/reset", token, ResetBalancesRequest{
		NewTotal: 30, ClearHistory: true, Confirm: true,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	u, err := e.mem.GetUser(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 30, u.TotalDays.Int())
	assert.Equal(t, 0, u.UsedDays.Int())
}

func TestPolicy_GetAndSet(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "admin-1", vacation.RoleAdmin, 0, 0)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	adminToken := e.tokenFor(t, "admin-1", vacation.RoleAdmin)
	empToken := e.tokenFor(t, "emp-1", vacation.RoleEmployee)

	rec := e.do(t, http.MethodGet, "/api/policy", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[PolicyDTO](t, rec).ExcludeWeekends)

	rec = e.do(t, http.MethodPut, "/api/policy", adminToken, PolicyDTO{ExcludeWeekends: false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/policy", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[PolicyDTO](t, rec).ExcludeWeekends)

	rec = e.do(t, http.MethodPut, "/api/policy", empToken, PolicyDTO{ExcludeWeekends: true})
	assert.Equal(t, http.StatusForbidden, rec.Code, "policy writes are admin-only")
}

func TestCancelApprovedRequest_AdminOnly(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "emp-1", vacation.RoleEmployee, 25, 0)
	e.seedUser(t, "admin-1", vacation.RoleAdmin, 0, 0)
	empToken := e.tokenFor(t, "emp-1", vacation.RoleEmployee)
	adminToken := e.tokenFor(t, "admin-1", vacation.RoleAdmin)

	created := decodeBody[RequestDTO](t, e.do(t, http.MethodPost, "/api/requests", empToken, SubmitRequestDTO{
		StartDate: "2026-06-01", EndDate: "2026-06-05",
	}))
	require.Equal(t, http.StatusOK,
		e.do(t, http.MethodPost, "/api/requests/"+created.ID+"/approve", adminToken, nil).Code)

	rec := e.do(t, http.MethodPost, "/api/admin/requests/"+created.ID+"/cancel", empToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/admin/requests/"+created.ID+"/cancel", adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	balance := decodeBody[BalanceDTO](t, e.do(t, http.MethodGet, "/api/me/balance", empToken, nil))
	assert.Equal(t, "0", balance.Used)
}
