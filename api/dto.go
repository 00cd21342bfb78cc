/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry validator tags; handlers run them through a shared
  go-playground/validator instance before touching domain logic. Dates are
  exchanged as YYYY-MM-DD strings.
*/
package api

import (
	"time"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
}

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TotalDays string `json:"total_days"`
	UsedDays  string `json:"used_days"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateUserRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required,oneof=admin employee"`
	TotalDays int    `json:"total_days" validate:"min=0"`
}

func toUserDTO(u *vacation.User) UserDTO {
	return UserDTO{
		ID:        string(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		TotalDays: u.TotalDays.String(),
		UsedDays:  u.UsedDays.String(),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

type SubmitRequestDTO struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"max=200"`
}

type RequestDTO struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	BusinessDays int    `json:"business_days"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"created_at"`
	ReviewedBy   string `json:"reviewed_by,omitempty"`
	ReviewedAt   string `json:"reviewed_at,omitempty"`
}

func toRequestDTO(r *vacation.Request) RequestDTO {
	dto := RequestDTO{
		ID:           string(r.ID),
		UserID:       string(r.UserID),
		StartDate:    r.StartDate.String(),
		EndDate:      r.EndDate.String(),
		BusinessDays: r.BusinessDays,
		Status:       string(r.Status),
		Reason:       r.Reason,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.ReviewedBy != nil {
		dto.ReviewedBy = string(*r.ReviewedBy)
	}
	if r.ReviewedAt != nil {
		dto.ReviewedAt = r.ReviewedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// BALANCE / POLICY / ADMIN
// =============================================================================

type BalanceDTO struct {
	UserID    string `json:"user_id"`
	Total     string `json:"total"`
	Used      string `json:"used"`
	Remaining string `json:"remaining"`
}

type PolicyDTO struct {
	ExcludeWeekends bool `json:"exclude_weekends"`
}

type ResetBalancesRequest struct {
	NewTotal     int  `json:"new_total" validate:"min=0"`
	ClearHistory bool `json:"clear_history"`

	// Destructive operation: the API refuses to proceed without an explicit
	// confirmation flag.
	Confirm bool `json:"confirm"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}
