package domain

import "time"

// AccountStatus represents lifecycle states for a server-side account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// ReferralAgent is the server-side account of an independent referral agent.
type ReferralAgent struct {
	ID           string
	Name         string
	Email        string
	NationalID   string
	Phone        string
	PasswordHash string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
