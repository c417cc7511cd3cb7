package domain

import "time"

// StaffMember models a company CRM user. RoleLabel is the raw label the
// backend stores, which may be a legacy or localised synonym.
type StaffMember struct {
	ID           string
	CompanyID    string
	Name         string
	Email        string
	PasswordHash string
	RoleLabel    string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
