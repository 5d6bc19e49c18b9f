package guard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/froonn/MedicalVision/internal/auth"
	"github.com/froonn/MedicalVision/internal/session"
)

// SessionSource is the slice of the auth gateway the guard needs: read the
// current session, and complete a half-open one.
type SessionSource interface {
	Current(ctx context.Context, sid string) session.Session
	Refresh(ctx context.Context, sid string) (session.Session, error)
}

type contextKeyUser struct{}

// UserFrom retrieves the profile the guard admitted for this request.
func UserFrom(ctx context.Context) *session.UserProfile {
	if u, ok := ctx.Value(contextKeyUser{}).(*session.UserProfile); ok {
		return u
	}
	return nil
}

// WithUser injects a profile into a context. Test hook for handlers that run
// without the full middleware chain.
func WithUser(ctx context.Context, u *session.UserProfile) context.Context {
	return context.WithValue(ctx, contextKeyUser{}, u)
}

// Middleware evaluates the guard on every navigation of a gated route.
type Middleware struct {
	Sessions         SessionSource
	Logger           *slog.Logger
	LoginPath        string
	UnauthorizedPath string
	// RenderLoading draws the waiting page when the profile fetch is
	// stalled: a refresh was attempted and failed transiently, so the
	// page self-refreshes rather than misclassifying the user.
	RenderLoading http.HandlerFunc
}

// Require gates a route behind the given role. An empty role admits any
// authenticated user.
func (m *Middleware) Require(required session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sid := auth.SessionIDFrom(ctx)
			sess := m.Sessions.Current(ctx, sid)

			decision := Evaluate(sess, required)
			if decision == RenderLoading {
				// Two round-trips separate token issuance from the profile;
				// a persisted token without a profile is completed here
				// before the user is classified.
				refreshed, err := m.Sessions.Refresh(ctx, sid)
				if err != nil {
					m.Logger.WarnContext(ctx, "profile refresh stalled",
						"path", r.URL.Path,
						"error", err,
					)
					m.RenderLoading(w, r)
					return
				}
				sess = refreshed
				decision = Evaluate(sess, required)
			}

			switch decision {
			case Render:
				next.ServeHTTP(w, r.WithContext(WithUser(ctx, sess.User)))
			case RedirectLogin:
				http.Redirect(w, r, m.LoginPath, http.StatusSeeOther)
			case RedirectUnauthorized:
				m.Logger.InfoContext(ctx, "role denied",
					"path", r.URL.Path,
					"required", required,
					"actual", sess.User.Role,
				)
				http.Redirect(w, r, m.UnauthorizedPath, http.StatusSeeOther)
			default:
				m.RenderLoading(w, r)
			}
		})
	}
}

// RequireAuthenticated admits any logged-in user regardless of role.
func (m *Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return m.Require("")
}
