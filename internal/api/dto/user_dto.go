package dto

import (
	"time"

	"github.com/scoo-app/scoo-api/internal/domain"
)

// LoginRequest payload for credential exchange.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

// CreateUserRequest payload for new accounts.
type CreateUserRequest struct {
	FirstName string      `json:"firstName" validate:"required,notblank,max=60"`
	LastName  string      `json:"lastName" validate:"required,notblank,max=60"`
	Email     string      `json:"email" validate:"required,email,max=255"`
	Password  string      `json:"password" validate:"required"`
	Role      domain.Role `json:"role" validate:"omitempty,role"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID            string      `json:"id"`
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	Email         string      `json:"email"`
	Role          domain.Role `json:"role"`
	Active        bool        `json:"active"`
	CreatedBy     *string     `json:"created_by,omitempty"`
	CreatedByName *string     `json:"created_by_name,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewUserResponse hides the password hash.
func NewUserResponse(p *domain.UserProfile) UserResponse {
	return UserResponse{
		ID:            p.ID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		Role:          p.Role,
		Active:        p.Active,
		CreatedBy:     p.CreatedBy,
		CreatedByName: p.CreatedByName,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
