package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Role enumerates the company-staff permission levels the client knows about.
type Role string

const (
	// RoleNone means the server label did not map to a known role. It grants nothing.
	RoleNone       Role = ""
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleSalesAgent Role = "salesAgent"
	RoleAnalyst    Role = "analyst"
)

// Roles lists the closed role set in a stable order.
var Roles = []Role{RoleAdmin, RoleSupervisor, RoleSalesAgent, RoleAnalyst}

// Known reports whether r is a member of the closed role set.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleSalesAgent, RoleAnalyst:
		return true
	default:
		return false
	}
}

// roleSynonyms maps normalised backend labels, legacy names included, to roles.
var roleSynonyms = map[string]Role{
	"ADMIN":         RoleAdmin,
	"ADMINISTRADOR": RoleAdmin,
	"SUPERVISOR":    RoleSupervisor,
	"SUPERADMIN":    RoleSupervisor,
	"VENDEDOR":      RoleSalesAgent,
	"SALES":         RoleSalesAgent,
	"SALES_AGENT":   RoleSalesAgent,
	"SALESAGENT":    RoleSalesAgent,
	"ANALISTA":      RoleAnalyst,
	"ANALITICA":     RoleAnalyst,
	"ANALYTICS":     RoleAnalyst,
	"ANALYST":       RoleAnalyst,
}

// ResolveRole normalises a server-supplied role label into the closed role set.
// Unknown labels resolve to (RoleNone, false).
func ResolveRole(raw string) (Role, bool) {
	label := normalizeLabel(raw)
	if label == "" {
		return RoleNone, false
	}
	role, ok := roleSynonyms[label]
	if !ok {
		return RoleNone, false
	}
	return role, true
}

func normalizeLabel(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, trimmed)
	if err != nil {
		stripped = trimmed
	}
	return cases.Upper(language.Und).String(stripped)
}
