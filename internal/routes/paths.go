// Package routes maps sessions to the screens they may reach. Everything here
// is pure: no I/O and no error returns.
package routes

import "github.com/spec-kit/freeler-client/internal/domain"

// Screen family prefixes.
const (
	ReferralPrefix = "/freeler"
	StaffPrefix    = "/crm"
)

// Login screens.
const (
	ReferralLogin = "/login"
	StaffLogin    = StaffPrefix + "/login"
	Unauthorized  = "/unauthorized"
)

// Home screens.
const (
	ReferralHome   = ReferralPrefix + "/dashboard"
	StaffHome      = StaffPrefix + "/home"
	AdminHome      = StaffPrefix + "/admin/dashboard"
	SupervisorHome = StaffPrefix + "/supervisor/dashboard"
	SalesAgentHome = StaffPrefix + "/sales/dashboard"
	AnalyticsHome  = StaffPrefix + "/analytics/dashboard"
)

var roleHomes = map[domain.Role]string{
	domain.RoleAdmin:      AdminHome,
	domain.RoleSupervisor: SupervisorHome,
	domain.RoleSalesAgent: SalesAgentHome,
	domain.RoleAnalyst:    AnalyticsHome,
}

// publicPaths are reachable without a session.
var publicPaths = []string{ReferralLogin, StaffLogin, "/register", Unauthorized, "/"}

// referralPaths are reachable by every referral agent.
var referralPaths = []string{
	ReferralPrefix + "/dashboard",
	ReferralPrefix + "/leads",
	ReferralPrefix + "/campaigns",
	ReferralPrefix + "/commissions",
	ReferralPrefix + "/profile",
}

// staffCommon are reachable by every company-staff session, mapped role or not.
var staffCommon = []string{StaffHome, StaffPrefix + "/profile"}

// rolePaths lists the extra sub-trees each role may reach.
var rolePaths = map[domain.Role][]string{
	domain.RoleAdmin: {
		StaffPrefix + "/admin",
		StaffPrefix + "/supervisor",
		StaffPrefix + "/sales",
		StaffPrefix + "/analytics",
		StaffPrefix + "/settings",
		StaffPrefix + "/chat",
	},
	domain.RoleSupervisor: {
		StaffPrefix + "/supervisor",
		StaffPrefix + "/sales",
		StaffPrefix + "/analytics",
	},
	domain.RoleSalesAgent: {
		StaffPrefix + "/sales",
	},
	domain.RoleAnalyst: {
		StaffPrefix + "/analytics",
	},
}
