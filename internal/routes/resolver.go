package routes

import (
	"strings"

	"github.com/spec-kit/freeler-client/internal/domain"
)

// HomeFor returns the landing screen for sess. Staff sessions without a
// recognised role land on the generic staff home; no session lands on the
// referral login.
func HomeFor(sess domain.Session) string {
	switch s := sess.(type) {
	case *domain.ReferralAgentSession:
		if s == nil {
			return ReferralLogin
		}
		return ReferralHome
	case *domain.StaffSession:
		if s == nil {
			return ReferralLogin
		}
		if home, ok := roleHomes[s.Role]; ok {
			return home
		}
		return StaffHome
	default:
		return ReferralLogin
	}
}

// LoginFor returns the login screen of the family implied by path.
func LoginFor(path string) string {
	if hasPrefix(cleanPath(path), StaffPrefix) {
		return StaffLogin
	}
	return ReferralLogin
}

// UnauthorizedFallback is where a user is sent after being refused a screen.
func UnauthorizedFallback(sess domain.Session, requestedPath string) string {
	if isNil(sess) {
		return LoginFor(requestedPath)
	}
	return HomeFor(sess)
}

// NotFoundFallback is where a user is sent for an unknown screen.
func NotFoundFallback(sess domain.Session, requestedPath string) string {
	if isNil(sess) {
		return LoginFor(requestedPath)
	}
	return HomeFor(sess)
}

// Outcome is the result of an access check.
type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect-login"
	case RedirectUnauthorized:
		return "redirect-unauthorized"
	default:
		return "unknown"
	}
}

// Decision tells a screen whether to render or where to go instead.
type Decision struct {
	Outcome Outcome
	Path    string
}

// Authorize decides what happens when sess navigates to path.
func Authorize(sess domain.Session, path string) Decision {
	p := cleanPath(path)
	if matchesAny(p, publicPaths, true) {
		return Decision{Outcome: Render, Path: p}
	}
	if isNil(sess) {
		return Decision{Outcome: RedirectLogin, Path: LoginFor(p)}
	}
	if matchesAny(p, Reachable(sess), false) {
		return Decision{Outcome: Render, Path: p}
	}
	return Decision{Outcome: RedirectUnauthorized, Path: UnauthorizedFallback(sess, p)}
}

// Reachable lists the path prefixes sess may navigate to.
func Reachable(sess domain.Session) []string {
	switch s := sess.(type) {
	case *domain.ReferralAgentSession:
		if s == nil {
			return nil
		}
		return append([]string(nil), referralPaths...)
	case *domain.StaffSession:
		if s == nil {
			return nil
		}
		out := append([]string(nil), staffCommon...)
		return append(out, rolePaths[s.Role]...)
	default:
		return nil
	}
}

func matchesAny(path string, prefixes []string, exact bool) bool {
	for _, prefix := range prefixes {
		if exact {
			if path == prefix {
				return true
			}
			continue
		}
		if hasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// hasPrefix matches whole path segments so "/crmx" is not under "/crm".
func hasPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}

func cleanPath(path string) string {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return strings.ToLower(p)
}

func isNil(sess domain.Session) bool {
	switch s := sess.(type) {
	case nil:
		return true
	case *domain.ReferralAgentSession:
		return s == nil
	case *domain.StaffSession:
		return s == nil
	default:
		return false
	}
}
