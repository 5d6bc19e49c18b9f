// Package session owns the browser session model and its durable storage.
// A session holds at most two things: the backend bearer token and the
// profile of the user it belongs to. Everything else in the portal reads
// sessions through the Store interface; only the auth gateway writes them.
package session

import "encoding/json"

// Role is the backend-assigned account role.
type Role string

const (
	RoleDiagnostician Role = "diagnostician"
	RoleClinician     Role = "clinician"
	RoleAdmin         Role = "admin"
)

// Known reports whether the role is one the portal has a home page for.
func (r Role) Known() bool {
	switch r {
	case RoleDiagnostician, RoleClinician, RoleAdmin:
		return true
	}
	return false
}

// UserProfile mirrors the backend /v1/auth/me response. Immutable once
// fetched; replaced wholesale on re-login.
type UserProfile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Session is the unit of durable per-browser state. Invariant: User is
// non-nil only when Token is non-empty. The reverse may transiently hold
// while a profile fetch is in flight.
type Session struct {
	Token  string
	User   *UserProfile
	Device string
}

// Empty reports whether the session carries no credentials at all.
func (s Session) Empty() bool {
	return s.Token == "" && s.User == nil
}

// Authenticated reports whether both token and profile are present.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// normalize drops state that violates the token/profile invariant. A profile
// without a token is meaningless and reads as an empty session.
func normalize(s Session) Session {
	if s.Token == "" {
		return Session{}
	}
	return s
}

// decodeProfile parses a persisted profile entry. Malformed data reads as
// absent rather than failing hydration.
func decodeProfile(raw []byte) *UserProfile {
	if len(raw) == 0 {
		return nil
	}
	var p UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	if p.Username == "" || p.Role == "" {
		return nil
	}
	return &p
}

// encodeProfile serializes a profile for durable storage.
func encodeProfile(p *UserProfile) []byte {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return raw
}
