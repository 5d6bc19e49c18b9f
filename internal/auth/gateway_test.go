package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/froonn/MedicalVision/internal/backend"
	"github.com/froonn/MedicalVision/internal/platform/metrics"
	"github.com/froonn/MedicalVision/internal/session"
)

// fakeBackend imitates the analysis service's auth surface. Knobs control
// whether token issuance and the profile fetch succeed.
type fakeBackend struct {
	rejectLogin   bool
	failProfile   bool
	issuedToken   string
	lastAuth      atomic.Value // last Authorization header seen on /v1/auth/me
	profileCalls  atomic.Int32
	historyCalls  atomic.Int32
	historyAuth   atomic.Value
	historyStatus int
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		if f.rejectLogin {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": f.issuedToken, "token_type": "bearer"})
	})
	mux.HandleFunc("GET /v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.profileCalls.Add(1)
		f.lastAuth.Store(r.Header.Get("Authorization"))
		if f.failProfile {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"profile store down"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+f.issuedToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42, "username": "drwho", "role": "diagnostician", "is_active": true})
	})
	mux.HandleFunc("GET /v1/analyses/my_history", func(w http.ResponseWriter, r *http.Request) {
		f.historyCalls.Add(1)
		f.historyAuth.Store(r.Header.Get("Authorization"))
		status := f.historyStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`[]`))
	})
	return mux
}

type GatewaySuite struct {
	suite.Suite
	ctx     context.Context
	store   *session.InMemoryStore
	back    *fakeBackend
	gateway *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.store = session.NewInMemoryStore()
	s.back = &fakeBackend{issuedToken: "tok-fresh"}
	srv := httptest.NewServer(s.back.handler())
	s.T().Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(testWriter{s.T()}, nil))
	s.gateway = New(s.store, srv.URL, 5*time.Second, logger, metrics.New(prometheus.NewRegistry()))

	const sid = "sid-test"
	s.ctx = WithSessionID(context.Background(), sid)
}

func (s *GatewaySuite) sid() string { return SessionIDFrom(s.ctx) }

// authHeaderSentNow issues a proxied call and reports the Authorization
// header the transport attached to it.
func (s *GatewaySuite) authHeaderSentNow() string {
	_, _ = s.gateway.Client().MyHistory(s.ctx)
	if v, ok := s.back.historyAuth.Load().(string); ok {
		return v
	}
	return ""
}

func (s *GatewaySuite) TestLoginSuccess() {
	profile, err := s.gateway.Login(s.ctx, s.sid(), "drwho", "tardis", "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0")
	s.Require().NoError(err)
	s.Equal("drwho", profile.Username)
	s.Equal(session.RoleDiagnostician, profile.Role)

	sess := s.gateway.Current(s.ctx, s.sid())
	s.True(sess.Authenticated())
	s.Equal("tok-fresh", sess.Token)
	s.Contains(sess.Device, "Firefox")

	// Subsequent proxied calls carry the stored token.
	s.Equal("Bearer tok-fresh", s.authHeaderSentNow())
}

func (s *GatewaySuite) TestLoginRejectedLeavesNoResidue() {
	s.back.rejectLogin = true

	_, err := s.gateway.Login(s.ctx, s.sid(), "baduser", "badpass", "")
	s.Require().ErrorIs(err, ErrInvalidCredentials)

	sess := s.gateway.Current(s.ctx, s.sid())
	s.True(sess.Empty())
	s.Empty(s.authHeaderSentNow())
	// The profile fetch must not have been attempted.
	s.Zero(s.back.profileCalls.Load())
}

func (s *GatewaySuite) TestProfileFetchFailureCleansUp() {
	s.back.failProfile = true

	_, err := s.gateway.Login(s.ctx, s.sid(), "drwho", "tardis", "")
	s.Require().Error(err)
	s.NotErrorIs(err, ErrInvalidCredentials)

	sess := s.gateway.Current(s.ctx, s.sid())
	s.True(sess.Empty())
	s.Empty(s.authHeaderSentNow())
}

func (s *GatewaySuite) TestProfileFetchUsesFreshToken() {
	// Simulate a stale session from a previous login; the /me call during the
	// new login must present the newly issued token, not the stale one.
	s.Require().NoError(s.store.Set(s.ctx, s.sid(), session.Session{Token: "tok-stale"}))

	_, err := s.gateway.Login(s.ctx, s.sid(), "drwho", "tardis", "")
	s.Require().NoError(err)
	s.Equal("Bearer tok-fresh", s.back.lastAuth.Load())
}

func (s *GatewaySuite) TestLogoutIsIdempotent() {
	_, err := s.gateway.Login(s.ctx, s.sid(), "drwho", "tardis", "")
	s.Require().NoError(err)

	s.gateway.Logout(s.ctx, s.sid())
	s.True(s.gateway.Current(s.ctx, s.sid()).Empty())
	s.Empty(s.authHeaderSentNow())

	// Calling again on an already-empty session must not panic or fail.
	s.gateway.Logout(s.ctx, s.sid())
	s.True(s.gateway.Current(s.ctx, s.sid()).Empty())
}

func (s *GatewaySuite) TestExpiredHydratedTokenReadsAsAbsent() {
	expired := signedToken(s.T(), time.Now().Add(-time.Hour))
	s.Require().NoError(s.store.Set(s.ctx, s.sid(), session.Session{Token: expired}))

	sess := s.gateway.Current(s.ctx, s.sid())
	s.True(sess.Empty())

	// The stale entry is cleared from durable storage too.
	raw, err := s.store.Get(s.ctx, s.sid())
	s.NoError(err)
	s.True(raw.Empty())
}

func (s *GatewaySuite) TestOpaqueTokenIsLeftForBackend() {
	s.Require().NoError(s.store.Set(s.ctx, s.sid(), session.Session{Token: "opaque-not-a-jwt"}))
	sess := s.gateway.Current(s.ctx, s.sid())
	s.Equal("opaque-not-a-jwt", sess.Token)
}

func (s *GatewaySuite) TestRefreshCompletesHalfOpenSession() {
	s.Require().NoError(s.store.Set(s.ctx, s.sid(), session.Session{Token: "tok-fresh"}))

	sess, err := s.gateway.Refresh(s.ctx, s.sid())
	s.Require().NoError(err)
	s.Require().True(sess.Authenticated())
	s.Equal("drwho", sess.User.Username)

	// The completed profile is persisted.
	persisted := s.gateway.Current(s.ctx, s.sid())
	s.True(persisted.Authenticated())
}

func (s *GatewaySuite) TestRefreshOnDeadTokenClears() {
	s.Require().NoError(s.store.Set(s.ctx, s.sid(), session.Session{Token: "tok-revoked"}))

	sess, err := s.gateway.Refresh(s.ctx, s.sid())
	s.Require().NoError(err)
	s.True(sess.Empty())
	s.True(s.gateway.Current(s.ctx, s.sid()).Empty())
}

func (s *GatewaySuite) TestRefreshKeepsHalfOpenOnTransientFailure() {
	s.back.failProfile = true
	s.Require().NoError(s.store.Set(s.ctx, s.sid(), session.Session{Token: "tok-fresh"}))

	sess, err := s.gateway.Refresh(s.ctx, s.sid())
	s.Require().Error(err)
	s.Equal("tok-fresh", sess.Token)
	s.Nil(sess.User)
}

func (s *GatewaySuite) TestDeauthenticateOnAuthFailureSignal() {
	_, err := s.gateway.Login(s.ctx, s.sid(), "drwho", "tardis", "")
	s.Require().NoError(err)

	s.back.historyStatus = http.StatusUnauthorized
	_, err = s.gateway.Client().MyHistory(s.ctx)
	s.Require().True(backend.IsAuthFailure(err))

	s.gateway.Deauthenticate(s.ctx, s.sid())
	s.True(s.gateway.Current(s.ctx, s.sid()).Empty())
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": "diagnostician",
		"exp":  exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-only-key"))
	require.NoError(t, err)
	return signed
}

func TestTokenUsable(t *testing.T) {
	assert.False(t, tokenUsable(""))
	assert.True(t, tokenUsable("opaque"))
	assert.True(t, tokenUsable(signedToken(t, time.Now().Add(time.Hour))))
	assert.False(t, tokenUsable(signedToken(t, time.Now().Add(-time.Minute))))
}

// testWriter routes logger output through the test log so failures show the
// gateway's view of events.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
