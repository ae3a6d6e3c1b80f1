package auth

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/tourmaster/tourctl/internal/logging"
)

// LogoutFunc is invoked when recovery fails and the session is over — the
// command-line analog of the front end's hard redirect to the login page.
// It runs after both credential records have been cleared, exactly once per
// failed exchange no matter how many requests were waiting on it.
type LogoutFunc func(reason error)

// Transport is an http.RoundTripper that authenticates outbound requests and
// recovers from authorization failures.
//
// The request stage injects a bearer token from the store (User token first,
// Admin second). The response stage watches for 401s: the first 401 a request
// sees triggers one token refresh, shared across all concurrently failing
// requests, and the request is replayed once with the fresh token. The
// replay's outcome is final — a second 401 surfaces to the caller, which by
// then can only mean the renewed token is itself rejected.
//
// When the refresh exchange fails, both principals' credentials are cleared
// atomically and the logout hook fires before the original request's error is
// returned.
type Transport struct {
	base        http.RoundTripper
	store       *Store
	coordinator *Coordinator
	onLogout    LogoutFunc

	refreshGroup singleflight.Group
}

// NewTransport wraps base with the authentication pipeline. If base is nil,
// http.DefaultTransport is used. onLogout may be nil.
func NewTransport(base http.RoundTripper, store *Store, coordinator *Coordinator, onLogout LogoutFunc) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:        base,
		store:       store,
		coordinator: coordinator,
		onLogout:    onLogout,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.authorize(req)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		// Network-level failure: no response, nothing to recover. The
		// caller decides whether to retry manually.
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// First 401 for this request. Release the rejected response before
	// starting recovery.
	drainAndClose(resp.Body)

	token, err := t.refresh(req.Context())
	if err != nil {
		return nil, &TerminalError{Err: err}
	}

	// The caller may have given up while the shared refresh was in
	// flight. The refresh still completed (so credentials are fresh for
	// everyone else), but this request's replay is skipped.
	if ctxErr := req.Context().Err(); ctxErr != nil {
		return nil, ctxErr
	}

	replay, err := cloneForReplay(req)
	if err != nil {
		return nil, err
	}
	replay.Header.Set("Authorization", "Bearer "+token)

	// The replay's result is final for this request: it is returned to
	// the caller as-is, success or not. A 401 here is not recovered
	// again.
	return t.base.RoundTrip(replay)
}

// authorize is the request stage: it resolves a bearer token and sets the
// Authorization header. Header.Set overwrites, so running it twice on the
// same request yields the same header. Requests without any token are sent
// unauthenticated and left for the backend to reject.
func (t *Transport) authorize(req *http.Request) {
	if token, ok := t.store.BearerToken(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// refresh coalesces concurrent 401 recoveries into a single exchange. Every
// request failing while one exchange is in flight waits for that exchange and
// shares its token or its error. Clearing credentials and firing the logout
// hook happen inside the flight, so they run once per failed exchange rather
// than once per waiting request.
//
// The exchange runs on a context detached from the triggering request so a
// cancelled caller cannot abort a refresh other requests are waiting on.
func (t *Transport) refresh(ctx context.Context) (string, error) {
	result, err, _ := t.refreshGroup.Do("refresh", func() (any, error) {
		token, err := t.coordinator.Exchange(context.WithoutCancel(ctx))
		if err != nil {
			logging.Error("token refresh failed, clearing session", "error", err)
			t.store.ClearAll()
			if t.onLogout != nil {
				t.onLogout(err)
			}
			return "", err
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// cloneForReplay produces a fresh copy of req suitable for re-dispatch,
// rewinding the body where possible.
func cloneForReplay(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	body.Close()
}
