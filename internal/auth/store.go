package auth

import (
	"sync"

	"github.com/tourmaster/tourctl/internal/logging"
)

// Credentials is the token record for a single principal.
type Credentials struct {
	AccessToken   string `json:"access_token,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// State is the full persisted credential state for both principals.
type State struct {
	User  Credentials `json:"user"`
	Admin Credentials `json:"admin"`
}

// Store holds the credential records for both principals.
// All reads and writes go through the mutex; SetCredentials, ClearCredentials
// and ClearAll are the only operations that touch persisted state.
type Store struct {
	mu     sync.RWMutex
	user   Credentials
	admin  Credentials
	keeper Keeper
}

// NewStore creates a credential store backed by the given keeper.
// Previously persisted credentials are loaded if present; a nil keeper
// disables persistence.
func NewStore(keeper Keeper) (*Store, error) {
	if keeper == nil {
		keeper = NopKeeper{}
	}
	s := &Store{keeper: keeper}

	state, ok, err := keeper.Load()
	if err != nil {
		return nil, err
	}
	if ok {
		s.user = state.User
		s.admin = state.Admin
	}
	return s, nil
}

func (s *Store) record(p Principal) *Credentials {
	if p == PrincipalAdmin {
		return &s.admin
	}
	return &s.user
}

// AccessToken returns the access token for the given principal, if any.
func (s *Store) AccessToken(p Principal) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.record(p)
	return rec.AccessToken, rec.AccessToken != ""
}

// RefreshToken returns the refresh token for the given principal, if any.
func (s *Store) RefreshToken(p Principal) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.record(p)
	return rec.RefreshToken, rec.RefreshToken != ""
}

// SetCredentials overwrites both tokens for the given principal and marks it
// authenticated. The other principal's record is untouched.
func (s *Store) SetCredentials(p Principal, access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(p)
	rec.AccessToken = access
	rec.RefreshToken = refresh
	rec.Authenticated = access != ""

	s.persistLocked()
}

// ClearCredentials removes both tokens for the given principal and marks it
// unauthenticated.
func (s *Store) ClearCredentials(p Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	*s.record(p) = Credentials{}
	s.persistLocked()
}

// ClearAll wipes both principal records in a single critical section, so a
// concurrent reader never observes one principal cleared and the other not.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = Credentials{}
	s.admin = Credentials{}
	s.persistLocked()
}

// ActiveRole returns whichever principal is currently authenticated.
// User is checked before Admin. Both authenticated at once should not happen;
// when it does the User principal wins deterministically and the anomaly is
// logged.
func (s *Store) ActiveRole() (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user.Authenticated && s.admin.Authenticated {
		logging.Warn("both principals report authenticated, resolving to user")
		return PrincipalUser, true
	}
	for _, p := range principals {
		if s.record(p).Authenticated {
			return p, true
		}
	}
	return 0, false
}

// BearerToken returns the access token requests should be authorized with:
// the User token when present, otherwise the Admin token.
func (s *Store) BearerToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range principals {
		if tok := s.record(p).AccessToken; tok != "" {
			return tok, true
		}
	}
	return "", false
}

// IsAuthenticated reports whether the given principal holds a live session.
func (s *Store) IsAuthenticated(p Principal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record(p).Authenticated
}

// Snapshot returns a copy of the current state of both records.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{User: s.user, Admin: s.admin}
}

// persistLocked writes the current state through the keeper.
// Must be called with the write lock held. Persistence failures are logged
// rather than surfaced; the in-memory state is authoritative for the session.
func (s *Store) persistLocked() {
	if err := s.keeper.Save(State{User: s.user, Admin: s.admin}); err != nil {
		logging.Error("failed to persist credentials", "error", err)
	}
}
