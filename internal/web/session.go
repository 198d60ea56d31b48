package web

import (
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const sessionCookie = "cueview_session"

// Sessions is an in-memory session table mapping opaque tokens to the
// signed-in annotator's raw display name. Sessions do not survive a
// restart; the annotation files on disk are the durable state.
type Sessions struct {
	mu      sync.Mutex
	byToken map[string]string
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{byToken: make(map[string]string)}
}

// Start creates a session for username and returns its token.
func (s *Sessions) Start(username string) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	token := id.String()

	s.mu.Lock()
	s.byToken[token] = username
	s.mu.Unlock()
	return token, nil
}

// Lookup resolves a token to the username it was started for.
func (s *Sessions) Lookup(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.byToken[token]
	return username, ok
}

// End invalidates a token. Ending an unknown token is a no-op.
func (s *Sessions) End(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// setSessionCookie attaches the session token to the response.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
