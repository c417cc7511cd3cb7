package domain

import "time"

// SessionType differentiates referral-agent vs company-staff identities.
type SessionType string

const (
	SessionTypeReferralAgent SessionType = "referral-agent"
	SessionTypeCompanyStaff  SessionType = "company-staff"
)

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	return t == SessionTypeReferralAgent || t == SessionTypeCompanyStaff
}

// ParseSessionType accepts the canonical names plus the short aliases used by the CLI.
func ParseSessionType(raw string) (SessionType, bool) {
	switch raw {
	case string(SessionTypeReferralAgent), "freeler", "agent":
		return SessionTypeReferralAgent, true
	case string(SessionTypeCompanyStaff), "crm", "staff":
		return SessionTypeCompanyStaff, true
	default:
		return "", false
	}
}

// Token represents issued authentication token metadata.
type Token struct {
	SubjectID   string
	SessionType SessionType
	RoleLabel   string
	CompanyID   string
	ExpiresAt   time.Time
	IssuedAt    time.Time
}

// Credentials are the email/password pair submitted on a login screen.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up payload for a new referral agent.
type Registration struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	NationalID string `json:"nationalId,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// AuthResult is what the authentication service returns on success.
// RoleLabel is the raw server label and is only meaningful for staff.
type AuthResult struct {
	Token     string
	UserID    ID
	CompanyID ID
	RoleLabel string
	ExpiresAt time.Time
}
