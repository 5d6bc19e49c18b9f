package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const cookieName = "mv_sid"

// CookieManager issues and reads the signed cookie that carries the browser's
// session key. The cookie holds only the key; the session itself lives in the
// Store.
type CookieManager struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewCookieManager builds a manager from the configured keys. An empty hash
// key gets a random one, which invalidates cookies on restart; acceptable for
// development only.
func NewCookieManager(hashKey, blockKey []byte, maxAge time.Duration, secure bool) *CookieManager {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	return &CookieManager{
		codec:  securecookie.New(hashKey, blockKey),
		maxAge: maxAge,
		secure: secure,
	}
}

// SessionID extracts the session key from the request cookie. Returns an
// empty string when the cookie is absent or fails signature verification.
func (m *CookieManager) SessionID(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	var sid string
	if err := m.codec.Decode(cookieName, c.Value, &sid); err != nil {
		return ""
	}
	return sid
}

// Ensure returns the request's session key, minting and setting a fresh one
// when the browser arrived without a valid cookie.
func (m *CookieManager) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if sid := m.SessionID(r); sid != "" {
		return sid, nil
	}
	sid := uuid.New().String()
	encoded, err := m.codec.Encode(cookieName, sid)
	if err != nil {
		return "", errors.New("session cookie encode failed")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}

// Drop expires the browser cookie. The durable session entry is cleared
// separately by the store.
func (m *CookieManager) Drop(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
