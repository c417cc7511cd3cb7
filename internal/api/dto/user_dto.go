package dto

import (
	"time"

	"github.com/spec-kit/freeler-client/internal/domain"
)

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	SessionType domain.SessionType `json:"sessionType"`
}

// RegisterRequest payload for POST /auth/register.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
}

// AuthResponse standard token block for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse describes the authenticated account.
type UserResponse struct {
	ID        domain.ID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CompanyID domain.ID `json:"companyId,omitempty"`
}

// SessionData is the data block of login and register responses. Role is the
// raw server label and is only sent for staff.
type SessionData struct {
	User UserResponse `json:"user"`
	Role string       `json:"role,omitempty"`
	Auth AuthResponse `json:"auth"`
}

// SessionEnvelope wraps SessionData.
type SessionEnvelope struct {
	Data SessionData `json:"data"`
}

// PersonEnvelope is the national ID lookup response.
type PersonEnvelope struct {
	Data domain.Person `json:"data"`
}

// Result converts the response into the client-side auth result.
func (d SessionData) Result() *domain.AuthResult {
	return &domain.AuthResult{
		Token:     d.Auth.Token,
		UserID:    d.User.ID,
		CompanyID: d.User.CompanyID,
		RoleLabel: d.Role,
		ExpiresAt: d.Auth.ExpiresAt,
	}
}
