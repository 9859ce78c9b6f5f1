package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/storage"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// MergeState tracks the one-shot local/server cart merge for the current
// login. It only ever moves forward within a session and resets on teardown.
type MergeState int

const (
	MergeNotStarted MergeState = iota
	MergeInProgress
	MergeDone
)

// Session holds the authenticated user and bearer token, persists the token,
// and owns the per-login merge state machine.
type Session struct {
	mu         sync.RWMutex
	store      storage.Store
	token      string
	user       *model.User
	mergeState MergeState
	onTeardown []func()
}

// New restores any persisted token from the store. An expired persisted
// token is discarded instead of restored.
func New(store storage.Store) *Session {
	s := &Session{store: store}

	token, err := store.Get(storage.KeyToken)
	if err == nil && token != "" {
		if _, err := InspectToken(token); err != nil {
			log.Printf("[Session] Discarding persisted token: %v", err)
			_ = store.Delete(storage.KeyToken)
		} else {
			s.token = token
		}
	}
	return s
}

// TokenClaims is what the client can read out of a token it does not verify.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// InspectToken parses a JWT without verifying its signature (the client
// holds no signing key) and rejects tokens that are already expired.
func InspectToken(tokenString string) (*TokenClaims, error) {
	parser := jwt.NewParser()
	claims := &jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
		if time.Now().After(out.ExpiresAt) {
			return nil, ErrExpiredToken
		}
	}
	return out, nil
}

// SetAuth installs the token and user issued at login/registration and
// persists the token.
func (s *Session) SetAuth(token string, user model.User) error {
	if _, err := InspectToken(token); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	return s.store.Set(storage.KeyToken, token)
}

// SetUser records the account fetched for an already-present token (startup
// token validation path).
func (s *Session) SetUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user, or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a token and user are both present.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// HasToken reports whether a bearer token is present, independent of whether
// the user has been fetched yet.
func (s *Session) HasToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// TryBeginMerge transitions NotStarted -> InProgress. It returns false when
// a merge already ran or is running, making the login merge one-shot.
func (s *Session) TryBeginMerge() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mergeState != MergeNotStarted {
		return false
	}
	s.mergeState = MergeInProgress
	return true
}

// FinishMerge transitions InProgress -> Done. failed aborts back to
// NotStarted so a later login attempt can merge again.
func (s *Session) FinishMerge(failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mergeState != MergeInProgress {
		return
	}
	if failed {
		s.mergeState = MergeNotStarted
		return
	}
	s.mergeState = MergeDone
}

// Merge returns the current merge state.
func (s *Session) Merge() MergeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mergeState
}

// OnTeardown registers a callback run when the session is torn down.
// Registration order is preserved.
func (s *Session) OnTeardown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTeardown = append(s.onTeardown, fn)
}

// Teardown ends the session: token and user are dropped, the merge state
// resets, the persisted token is deleted and teardown callbacks run. Safe to
// call repeatedly; used for both explicit logout and 401 expiry.
func (s *Session) Teardown() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mergeState = MergeNotStarted
	callbacks := make([]func(), len(s.onTeardown))
	copy(callbacks, s.onTeardown)
	s.mu.Unlock()

	if err := s.store.Delete(storage.KeyToken); err != nil {
		log.Printf("[Session] Failed to delete persisted token: %v", err)
	}

	for _, fn := range callbacks {
		fn()
	}
}
