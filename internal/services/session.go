package services

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/sessions"
)

const (
	// SessionCookieName is the commerce session cookie shared with the
	// legacy cart backend.
	SessionCookieName = "woo-session"

	// SessionTokenPrefix is the optional prefix the backend puts in front
	// of the raw token value.
	SessionTokenPrefix = "Session "

	sessionTokenKey = "token"

	// sessionMaxAge is 28 days, matching the backend's cookie expiry.
	sessionMaxAge = 28 * 24 * 60 * 60
)

// SessionStore holds the opaque commerce session token issued by the legacy
// cart backend. The token is shared across all gateway calls with
// last-writer-wins semantics; a single buyer session issues requests
// sequentially, never concurrently.
type SessionStore interface {
	Get() (string, bool)
	Set(token string)
}

// NewCookieSessionStore builds a cookie store for the commerce session with
// the attributes the legacy backend expects.
func NewCookieSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
	return store
}

// RequestSessionStore is a per-request SessionStore persisted in the
// woo-session cookie. It is constructed by the HTTP layer for each request
// and handed to the gateway, so the token a failed proxy attempt captured is
// still sent to the origin fallback and written back to the buyer's browser.
type RequestSessionStore struct {
	store   sessions.Store
	request *http.Request
	writer  http.ResponseWriter
}

// NewRequestSessionStore binds a cookie store to one request/response pair.
func NewRequestSessionStore(store sessions.Store, w http.ResponseWriter, r *http.Request) *RequestSessionStore {
	return &RequestSessionStore{store: store, request: r, writer: w}
}

func (s *RequestSessionStore) Get() (string, bool) {
	session, err := s.store.Get(s.request, SessionCookieName)
	if err != nil {
		return "", false
	}
	token, ok := session.Values[sessionTokenKey].(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (s *RequestSessionStore) Set(token string) {
	token = NormalizeSessionToken(token)
	if token == "" {
		return
	}
	session, err := s.store.Get(s.request, SessionCookieName)
	if err != nil {
		// A corrupt cookie is replaced rather than surfaced.
		session, _ = s.store.New(s.request, SessionCookieName)
	}
	if session == nil {
		return
	}
	session.Values[sessionTokenKey] = token
	_ = session.Save(s.request, s.writer)
}

// NormalizeSessionToken strips the optional "Session " prefix from a token
// value supplied by the backend.
func NormalizeSessionToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(token, SessionTokenPrefix))
}

// MemorySessionStore is an in-process SessionStore for non-browser callers
// and tests.
type MemorySessionStore struct {
	mu    sync.Mutex
	token string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *MemorySessionStore) Set(token string) {
	token = NormalizeSessionToken(token)
	if token == "" {
		return
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}
