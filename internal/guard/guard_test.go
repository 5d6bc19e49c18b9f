package guard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/froonn/MedicalVision/internal/auth"
	"github.com/froonn/MedicalVision/internal/session"
)

func profile(role session.Role) *session.UserProfile {
	return &session.UserProfile{ID: 1, Username: "u", Role: role}
}

func TestEvaluateTransitionTable(t *testing.T) {
	cases := []struct {
		name     string
		sess     session.Session
		required session.Role
		want     Decision
	}{
		{"no token redirects to login", session.Session{}, session.RoleAdmin, RedirectLogin},
		{"no token redirects to login even without required role", session.Session{}, "", RedirectLogin},
		{"token without profile is loading", session.Session{Token: "t"}, session.RoleAdmin, RenderLoading},
		{"matching role renders", session.Session{Token: "t", User: profile(session.RoleClinician)}, session.RoleClinician, Render},
		{"no required role renders for any profile", session.Session{Token: "t", User: profile(session.RoleClinician)}, "", Render},
		{"mismatched role is unauthorized", session.Session{Token: "t", User: profile(session.RoleClinician)}, session.RoleAdmin, RedirectUnauthorized},
		{"unknown role against required role is unauthorized", session.Session{Token: "t", User: profile("radiologist")}, session.RoleAdmin, RedirectUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.sess, tc.required))
		})
	}
}

func TestHomePath(t *testing.T) {
	for role, want := range map[session.Role]string{
		session.RoleDiagnostician: "/diagnostician",
		session.RoleClinician:     "/clinician",
		session.RoleAdmin:         "/admin",
	} {
		path, ok := HomePath(role)
		require.True(t, ok)
		assert.Equal(t, want, path)
	}

	_, ok := HomePath("unknown_role")
	assert.False(t, ok)
}

// fakeSource scripts the gateway's answers per session key.
type fakeSource struct {
	current    session.Session
	refreshed  session.Session
	refreshErr error
	refreshes  int
}

func (f *fakeSource) Current(context.Context, string) session.Session { return f.current }

func (f *fakeSource) Refresh(context.Context, string) (session.Session, error) {
	f.refreshes++
	return f.refreshed, f.refreshErr
}

func newGuarded(src SessionSource, required session.Role) http.Handler {
	m := &Middleware{
		Sessions:         src,
		Logger:           slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		LoginPath:        "/login",
		UnauthorizedPath: "/unauthorized",
		RenderLoading: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("loading"))
		},
	}
	return m.Require(required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFrom(r.Context())
		_, _ = w.Write([]byte("page:" + string(u.Role)))
	}))
}

func doGuarded(h http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(auth.WithSessionID(req.Context(), "sid"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareRedirectsAnonymousToLogin(t *testing.T) {
	rec := doGuarded(newGuarded(&fakeSource{}, session.RoleAdmin))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestMiddlewareRendersForMatchingRole(t *testing.T) {
	src := &fakeSource{current: session.Session{Token: "t", User: profile(session.RoleAdmin)}}
	rec := doGuarded(newGuarded(src, session.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page:admin", rec.Body.String())
	assert.Zero(t, src.refreshes)
}

func TestMiddlewareRedirectsWrongRole(t *testing.T) {
	src := &fakeSource{current: session.Session{Token: "t", User: profile(session.RoleClinician)}}
	rec := doGuarded(newGuarded(src, session.RoleAdmin))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}

func TestMiddlewareCompletesHalfOpenSession(t *testing.T) {
	src := &fakeSource{
		current:   session.Session{Token: "t"},
		refreshed: session.Session{Token: "t", User: profile(session.RoleAdmin)},
	}
	rec := doGuarded(newGuarded(src, session.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page:admin", rec.Body.String())
	assert.Equal(t, 1, src.refreshes)
}

func TestMiddlewareRefreshRevealsDeadToken(t *testing.T) {
	src := &fakeSource{current: session.Session{Token: "t"}, refreshed: session.Session{}}
	rec := doGuarded(newGuarded(src, session.RoleAdmin))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestMiddlewareRendersLoadingOnStalledRefresh(t *testing.T) {
	src := &fakeSource{
		current:    session.Session{Token: "t"},
		refreshErr: errors.New("backend unreachable"),
	}
	rec := doGuarded(newGuarded(src, session.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "loading", rec.Body.String())
}
