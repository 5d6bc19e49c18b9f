// Package auth owns the login and logout state transitions. It is the only
// writer of the session store; the rest of the portal reads sessions through
// the guard and the session-bound backend client this package configures.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"github.com/froonn/MedicalVision/internal/backend"
	"github.com/froonn/MedicalVision/internal/platform/metrics"
	"github.com/froonn/MedicalVision/internal/session"
)

// ErrInvalidCredentials is returned when the backend rejects the login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// storeTokenSource resolves the bearer token from the session store using the
// session key carried in the request context. Because the token is read at
// send time, the Authorization header always reflects the stored token
// exactly; there is no cached header to fall out of sync.
type storeTokenSource struct {
	sessions session.Store
}

func (ts storeTokenSource) Token(ctx context.Context) string {
	sid := SessionIDFrom(ctx)
	if sid == "" {
		return ""
	}
	s, err := ts.sessions.Get(ctx, sid)
	if err != nil || !tokenUsable(s.Token) {
		return ""
	}
	return s.Token
}

// Gateway performs login and logout against the backend and keeps the session
// store and the outgoing transport in lockstep.
type Gateway struct {
	sessions session.Store
	client   *backend.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New wires a gateway to the session store. The backend client it hands out
// reads its bearer token from that same store.
func New(sessions session.Store, backendBaseURL string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Gateway {
	g := &Gateway{
		sessions: sessions,
		client:   backend.New(backendBaseURL, timeout, storeTokenSource{sessions: sessions}),
		logger:   logger,
		metrics:  m,
	}
	sessions.Subscribe(func(sid string, s session.Session) {
		logger.Debug("session changed",
			"authenticated", s.Authenticated(),
			"has_token", s.Token != "",
		)
	})
	return g
}

// Client returns the session-bound backend client. Requests made with a
// context that carries a session key authenticate as that session.
func (g *Gateway) Client() *backend.Client {
	return g.client
}

// Login exchanges credentials for a bearer token, fetches the caller's
// profile with that token, and commits both to the session store. The three
// steps are strictly ordered; any failure leaves the store cleared and no
// residual authorization anywhere.
func (g *Gateway) Login(ctx context.Context, sid, username, password, userAgent string) (session.UserProfile, error) {
	tok, err := g.client.IssueToken(ctx, username, password)
	if err != nil {
		g.cleanup(ctx, sid)
		if backend.IsAuthFailure(err) || backend.IsValidation(err) {
			g.metrics.RecordLogin("rejected")
			return session.UserProfile{}, ErrInvalidCredentials
		}
		g.metrics.RecordLogin("error")
		return session.UserProfile{}, fmt.Errorf("token issuance: %w", err)
	}

	// The profile fetch must carry the token that was just issued, not
	// whatever the store held before this login.
	acc, err := g.client.WithToken(tok.AccessToken).Me(ctx)
	if err != nil {
		g.cleanup(ctx, sid)
		g.metrics.RecordLogin("error")
		return session.UserProfile{}, fmt.Errorf("profile fetch: %w", err)
	}

	profile := session.UserProfile{
		ID:       acc.ID,
		Username: acc.Username,
		Role:     session.Role(acc.Role),
		IsActive: acc.IsActive,
	}
	sess := session.Session{
		Token:  tok.AccessToken,
		User:   &profile,
		Device: deviceLabel(userAgent),
	}
	if err := g.sessions.Set(ctx, sid, sess); err != nil {
		g.cleanup(ctx, sid)
		g.metrics.RecordLogin("error")
		return session.UserProfile{}, fmt.Errorf("persist session: %w", err)
	}

	g.metrics.RecordLogin("success")
	g.metrics.ActiveSessions.Inc()
	g.logger.InfoContext(ctx, "login",
		"username", profile.Username,
		"role", profile.Role,
		"device", sess.Device,
	)
	return profile, nil
}

// Logout clears the session. Local-only: the backend has no revocation
// endpoint, so the token simply ages out server-side. Idempotent and
// never fails the caller; a storage hiccup is logged and the browser
// cookie is dropped regardless.
func (g *Gateway) Logout(ctx context.Context, sid string) {
	s, err := g.sessions.Get(ctx, sid)
	if err == nil && s.Authenticated() {
		g.metrics.ActiveSessions.Dec()
	}
	if err := g.sessions.Clear(ctx, sid); err != nil {
		g.logger.WarnContext(ctx, "session clear failed", "error", err)
	}
}

// Current returns the hydrated session. A token that is visibly expired is
// treated as absent and the stale entry is cleared, so the guard sends the
// user to login instead of letting a dead token bounce off the backend.
func (g *Gateway) Current(ctx context.Context, sid string) session.Session {
	if sid == "" {
		return session.Session{}
	}
	s, err := g.sessions.Get(ctx, sid)
	if err != nil {
		g.logger.WarnContext(ctx, "session read failed", "error", err)
		return session.Session{}
	}
	if s.Token != "" && !tokenUsable(s.Token) {
		g.cleanup(ctx, sid)
		return session.Session{}
	}
	return s
}

// Refresh completes a half-open session (token persisted, profile missing or
// unreadable) by re-fetching the profile. An authentication failure proves
// the token dead and clears the session; a transient failure leaves the
// half-open state for the caller to render as loading.
func (g *Gateway) Refresh(ctx context.Context, sid string) (session.Session, error) {
	s := g.Current(ctx, sid)
	if s.Token == "" || s.User != nil {
		return s, nil
	}

	acc, err := g.client.WithToken(s.Token).Me(ctx)
	if err != nil {
		if backend.IsAuthFailure(err) {
			g.cleanup(ctx, sid)
			return session.Session{}, nil
		}
		return s, fmt.Errorf("profile refresh: %w", err)
	}

	s.User = &session.UserProfile{
		ID:       acc.ID,
		Username: acc.Username,
		Role:     session.Role(acc.Role),
		IsActive: acc.IsActive,
	}
	if err := g.sessions.Set(ctx, sid, s); err != nil {
		return s, fmt.Errorf("persist session: %w", err)
	}
	return s, nil
}

// Deauthenticate clears the session after a proxied call failed with an
// authentication error. The distinction from Logout is intent only; the
// effect is identical.
func (g *Gateway) Deauthenticate(ctx context.Context, sid string) {
	g.Logout(ctx, sid)
}

func (g *Gateway) cleanup(ctx context.Context, sid string) {
	if err := g.sessions.Clear(ctx, sid); err != nil {
		g.logger.WarnContext(ctx, "session cleanup failed", "error", err)
	}
}

// deviceLabel renders a short human-readable description of the logging-in
// browser for the session record and audit logs.
func deviceLabel(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	if name == "" {
		return ""
	}
	label := name
	if version != "" {
		label += " " + version
	}
	if os := parsed.OS(); os != "" {
		label += " on " + os
	}
	return label
}
