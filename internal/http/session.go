package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// SessionCookieName is the cookie carrying the signed session.
const SessionCookieName = "erm_session"

var errSessionExpired = errors.New("session expired")

type sessionValue struct {
	Login   string
	Expires int64
}

// Sessions issues and reads signed, encrypted session tokens. A token is
// carried in the session cookie or as a bearer token.
type Sessions struct {
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	now    func() time.Time
	secure bool
}

// NewSessions builds a session codec. blockKey may be empty to sign without
// encrypting.
func NewSessions(hashKey, blockKey []byte, ttl time.Duration, now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(ttl / time.Second))
	return &Sessions{codec: codec, ttl: ttl, now: now, secure: true}
}

// Issue encodes a session for login and sets the cookie. It returns the
// token and its expiry.
func (s *Sessions) Issue(w http.ResponseWriter, login string) (string, time.Time, error) {
	expires := s.now().Add(s.ttl).UTC()
	token, err := s.codec.Encode(SessionCookieName, sessionValue{Login: login, Expires: expires.Unix()})
	if err != nil {
		return "", time.Time{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, expires, nil
}

// Login decodes the session on r and returns its login.
func (s *Sessions) Login(r *http.Request) (string, error) {
	token := extractTokenFromRequest(r)
	if token == "" {
		return "", errMissingSessionToken
	}
	var value sessionValue
	if err := s.codec.Decode(SessionCookieName, token, &value); err != nil {
		return "", err
	}
	if value.Login == "" || s.now().Unix() >= value.Expires {
		return "", errSessionExpired
	}
	return value.Login, nil
}

// Clear removes the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
