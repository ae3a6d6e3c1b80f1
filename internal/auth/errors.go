package auth

import (
	"errors"
	"fmt"
)

// ErrNoRefreshToken is returned when a refresh is attempted while neither
// principal holds a refresh token. The caller must treat it like any other
// failed exchange: the session is over.
var ErrNoRefreshToken = errors.New("no refresh token available")

// ErrNoActiveRole is returned when a refresh exchange succeeds but no
// principal is authenticated, so there is no record to write the new access
// token to.
var ErrNoActiveRole = errors.New("no authenticated principal to receive refreshed token")

// RefreshError is a failed refresh-token exchange: the endpoint answered with
// a non-2xx status.
type RefreshError struct {
	StatusCode int
	Message    string
}

func (e *RefreshError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("token refresh failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("token refresh failed (status %d)", e.StatusCode)
}

// TerminalError marks an authorization failure that recovery could not fix:
// the refresh exchange failed, or the replayed request was rejected again.
// Credentials have been cleared by the time a caller sees this error and the
// user must log in again.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("authentication expired: %v", e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// IsTerminal reports whether err (anywhere in its chain) is a terminal
// authentication failure.
func IsTerminal(err error) bool {
	var te *TerminalError
	return errors.As(err, &te)
}
