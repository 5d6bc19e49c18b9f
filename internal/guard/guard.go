// Package guard decides, per navigation, whether a page renders or the
// browser is redirected. The decision is a pure function of the session
// state and the page's required role; the middleware applies it.
package guard

import "github.com/froonn/MedicalVision/internal/session"

// Decision is the outcome of evaluating a navigation.
type Decision int

const (
	// Render lets the requested page through.
	Render Decision = iota
	// RedirectLogin sends the browser to the login page.
	RedirectLogin
	// RedirectUnauthorized sends the browser to the unauthorized page,
	// leaving the session intact.
	RedirectUnauthorized
	// RenderLoading shows the loading page: a token exists but the profile
	// is not available yet, so the user is neither unauthenticated nor
	// known to be authorized.
	RenderLoading
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case RenderLoading:
		return "render_loading"
	}
	return "unknown"
}

// Evaluate applies the guard transition table. An empty required role means
// the page only needs an authenticated user, not a particular role.
func Evaluate(s session.Session, required session.Role) Decision {
	if s.Token == "" {
		return RedirectLogin
	}
	if s.User == nil {
		return RenderLoading
	}
	if required == "" || s.User.Role == required {
		return Render
	}
	return RedirectUnauthorized
}

// HomePath maps a role to its dashboard path. The second return is false for
// roles the portal has no page for; the landing handler renders an
// "access not configured" message for those instead of redirecting.
func HomePath(role session.Role) (string, bool) {
	switch role {
	case session.RoleDiagnostician:
		return "/diagnostician", true
	case session.RoleClinician:
		return "/clinician", true
	case session.RoleAdmin:
		return "/admin", true
	}
	return "", false
}
