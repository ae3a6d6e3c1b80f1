package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// roundTripFunc adapts a function into an http.RoundTripper for tests.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// testBackend simulates the API plus the refresh endpoint behind a single
// RoundTripper. Requests to refreshPath are served by refreshHandler, all
// others by apiHandler.
type testBackend struct {
	refreshHandler roundTripFunc
	apiHandler     roundTripFunc

	apiCalls     atomic.Int64
	refreshCalls atomic.Int64
}

const testRefreshURL = "https://api.test/user_refresh_token/"

func (b *testBackend) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.Contains(req.URL.Path, "user_refresh_token") {
		b.refreshCalls.Add(1)
		return b.refreshHandler(req)
	}
	b.apiCalls.Add(1)
	return b.apiHandler(req)
}

// newTestTransport wires a store, coordinator and transport around the given
// backend. The coordinator's HTTP client goes through the same backend so the
// refresh exchange is observable.
func newTestTransport(t *testing.T, backend *testBackend, onLogout LogoutFunc) (*Transport, *Store) {
	t.Helper()
	store := newTestStore(t)
	coordinator := NewCoordinator(&http.Client{Transport: backend}, testRefreshURL, store)
	return NewTransport(backend, store, coordinator, onLogout), store
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	store.SetCredentials(PrincipalUser, "tok-1", "")
	tr := NewTransport(http.DefaultTransport, store, nil, nil)

	req, _ := http.NewRequest(http.MethodGet, "https://api.test/fetch-banner", nil)
	tr.authorize(req)
	tr.authorize(req)

	if got := req.Header.Get("Authorization"); got != "Bearer tok-1" {
		t.Errorf("unexpected Authorization header: %q", got)
	}
	if n := len(req.Header.Values("Authorization")); n != 1 {
		t.Errorf("expected a single Authorization value, got %d", n)
	}
}

func TestUnauthenticatedRequestSentWithoutHeader(t *testing.T) {
	var seen string
	backend := &testBackend{
		apiHandler: func(req *http.Request) (*http.Response, error) {
			seen = req.Header.Get("Authorization")
			return jsonResponse(http.StatusOK, `{}`), nil
		},
	}
	tr, _ := newTestTransport(t, backend, nil)

	req, _ := http.NewRequest(http.MethodGet, "https://api.test/fetch-banner", nil)
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	resp.Body.Close()

	if seen != "" {
		t.Errorf("empty store still produced Authorization header %q", seen)
	}
}

// The canonical recovery path: a stale token earns a 401, one refresh runs,
// and the request is replayed with the renewed token and succeeds.
func TestExpiredTokenRefreshAndReplay(t *testing.T) {
	var replayBody string
	backend := &testBackend{
		apiHandler: func(req *http.Request) (*http.Response, error) {
			switch req.Header.Get("Authorization") {
			case "Bearer fresh-token":
				body, _ := io.ReadAll(req.Body)
				replayBody = string(body)
				return jsonResponse(http.StatusOK, `{"message":"ok"}`), nil
			default:
				return jsonResponse(http.StatusUnauthorized, `{"detail":"token expired"}`), nil
			}
		},
		refreshHandler: func(req *http.Request) (*http.Response, error) {
			if got := req.Header.Get("Authorization"); got != "Bearer refresh-1" {
				t.Errorf("refresh presented wrong token: %q", got)
			}
			return jsonResponse(http.StatusOK, `{"access_token":"fresh-token"}`), nil
		},
	}
	tr, store := newTestTransport(t, backend, nil)
	store.SetCredentials(PrincipalUser, "stale-token", "refresh-1")

	req, _ := http.NewRequest(http.MethodPost, "https://api.test/Customerenquire", strings.NewReader(`{"name":"x"}`))
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after replay, got %d", resp.StatusCode)
	}
	if n := backend.refreshCalls.Load(); n != 1 {
		t.Errorf("expected exactly one refresh call, got %d", n)
	}
	if n := backend.apiCalls.Load(); n != 2 {
		t.Errorf("expected original plus one replay, got %d API calls", n)
	}
	if replayBody != `{"name":"x"}` {
		t.Errorf("replay lost the request body: %q", replayBody)
	}
	if tok, _ := store.AccessToken(PrincipalUser); tok != "fresh-token" {
		t.Errorf("store not updated with renewed token: %q", tok)
	}
	if tok, _ := store.RefreshToken(PrincipalUser); tok != "refresh-1" {
		t.Errorf("refresh token should be preserved, got %q", tok)
	}
}

// A 401 on the replay is final: it goes back to the caller and does not start
// another refresh.
func TestReplayRejectionIsFinal(t *testing.T) {
	backend := &testBackend{
		apiHandler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"detail":"nope"}`), nil
		},
		refreshHandler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"access_token":"fresh-token"}`), nil
		},
	}
	tr, store := newTestTransport(t, backend, nil)
	store.SetCredentials(PrincipalUser, "stale-token", "refresh-1")

	req, _ := http.NewRequest(http.MethodGet, "https://api.test/user_list", nil)
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected the replay's 401 to surface, got %d", resp.StatusCode)
	}
	if n := backend.refreshCalls.Load(); n != 1 {
		t.Errorf("expected a single refresh attempt, got %d", n)
	}
	if n := backend.apiCalls.Load(); n != 2 {
		t.Errorf("expected exactly one replay, got %d API calls", n)
	}
}

func TestFailedRefreshClearsSessionAndLogsOut(t *testing.T) {
	var logoutCalls atomic.Int64
	backend := &testBackend{
		apiHandler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{}`), nil
		},
		refreshHandler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"message":"refresh token expired"}`), nil
		},
	}
	tr, store := newTestTransport(t, backend, func(error) { logoutCalls.Add(1) })
	store.SetCredentials(PrincipalUser, "stale", "dead-refresh")
	store.SetCredentials(PrincipalAdmin, "admin-stale", "admin-refresh")

	req, _ := http.NewRequest(http.MethodGet, "https://api.test/user_list", nil)
	_, err := tr.RoundTrip(req)
	if err == nil {
		t.Fatal("expected an error after failed refresh")
	}

	var terminal *TerminalError
	if !errors.As(err, &terminal) {
		t.Fatalf("expected TerminalError, got %T: %v", err, err)
	}
	var refreshErr *RefreshError
	if !errors.As(err, &refreshErr) || refreshErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected wrapped RefreshError with 401, got %v", err)
	}

	if _, ok := store.AccessToken(PrincipalUser); ok {
		t.Error("user credentials survived a failed refresh")
	}
	if _, ok := store.AccessToken(PrincipalAdmin); ok {
		t.Error("admin credentials survived a failed refresh")
	}
	if n := logoutCalls.Load(); n != 1 {
		t.Errorf("logout hook fired %d times, want 1", n)
	}
}

// Without a refresh token there is nothing to exchange: the failure is
// terminal immediately and no refresh request goes on the wire.
func TestMissingRefreshTokenIsTerminalWithoutNetworkCall(t *testing.T) {
	var logoutCalls atomic.Int64
	backend := &testBackend{
		apiHandler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{}`), nil
		},
		refreshHandler: func(req *http.Request) (*http.Response, error) {
			t.Error("refresh endpoint should not be called")
			return jsonResponse(http.StatusOK, `{}`), nil
		},
	}
	tr, store := newTestTransport(t, backend, func(error) { logoutCalls.Add(1) })
	store.SetCredentials(PrincipalUser, "access-only", "")

	req, _ := http.NewRequest(http.MethodGet, "https://api.test/user_list", nil)
	_, err := tr.RoundTrip(req)
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}
	var terminal *TerminalError
	if !errors.As(err, &terminal) {
		t.Errorf("expected TerminalError wrapper, got %T", err)
	}
	if n := backend.refreshCalls.Load(); n != 0 {
		t.Errorf("refresh endpoint called %d times, want 0", n)
	}
	if n := logoutCalls.Load(); n != 1 {
		t.Errorf("logout hook fired %d times, want 1", n)
	}
	if _, ok := store.AccessToken(PrincipalUser); ok {
		t.Error("credentials not cleared")
	}
}

// Concurrent 401s must share one refresh exchange. The refresh handler is
// gated until every request has been rejected once, so all of them are
// waiting on the same in-flight exchange.
func TestConcurrentRecoveriesShareOneRefresh(t *testing.T) {
	const parallel = 8

	var rejected atomic.Int64
	release := make(chan struct{})
	backend := &testBackend{}
	backend.apiHandler = func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") == "Bearer fresh-token" {
			return jsonResponse(http.StatusOK, `{}`), nil
		}
		if rejected.Add(1) == parallel {
			close(release)
		}
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	}
	backend.refreshHandler = func(req *http.Request) (*http.Response, error) {
		// Hold the exchange open briefly so the last rejected request
		// has joined the flight before it resolves.
		<-release
		time.Sleep(50 * time.Millisecond)
		return jsonResponse(http.StatusOK, `{"access_token":"fresh-token"}`), nil
	}

	tr, store := newTestTransport(t, backend, nil)
	store.SetCredentials(PrincipalUser, "stale", "refresh-1")

	var wg sync.WaitGroup
	errs := make([]error, parallel)
	codes := make([]int, parallel)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, "https://api.test/user_list", nil)
			resp, err := tr.RoundTrip(req)
			if err != nil {
				errs[i] = err
				return
			}
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	for i := 0; i < parallel; i++ {
		if errs[i] != nil {
			t.Errorf("request %d failed: %v", i, errs[i])
		} else if codes[i] != http.StatusOK {
			t.Errorf("request %d got status %d, want 200", i, codes[i])
		}
	}
	if n := backend.refreshCalls.Load(); n != 1 {
		t.Errorf("expected one shared refresh exchange, got %d", n)
	}
}

// When the shared exchange fails, the session teardown runs once, not once
// per waiting request.
func TestConcurrentFailureFiresLogoutOnce(t *testing.T) {
	const parallel = 8

	var rejected atomic.Int64
	release := make(chan struct{})
	backend := &testBackend{}
	backend.apiHandler = func(req *http.Request) (*http.Response, error) {
		if rejected.Add(1) == parallel {
			close(release)
		}
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	}
	backend.refreshHandler = func(req *http.Request) (*http.Response, error) {
		<-release
		time.Sleep(50 * time.Millisecond)
		return jsonResponse(http.StatusForbidden, `{"message":"revoked"}`), nil
	}

	var logoutCalls atomic.Int64
	tr, store := newTestTransport(t, backend, func(error) { logoutCalls.Add(1) })
	store.SetCredentials(PrincipalUser, "stale", "dead")

	var wg sync.WaitGroup
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, "https://api.test/user_list", nil)
			_, err := tr.RoundTrip(req)
			var terminal *TerminalError
			if !errors.As(err, &terminal) {
				t.Errorf("expected TerminalError, got %v", err)
			}
		}()
	}
	wg.Wait()

	if n := backend.refreshCalls.Load(); n != 1 {
		t.Errorf("expected one refresh exchange, got %d", n)
	}
	if n := logoutCalls.Load(); n != 1 {
		t.Errorf("logout hook fired %d times, want 1", n)
	}
}

// A caller that gives up mid-refresh does not get a replay, but the exchange
// itself completes on a detached context so the renewed token lands in the
// store.
func TestCanceledCallerSkipsReplayButRefreshCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &testBackend{
		apiHandler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{}`), nil
		},
		refreshHandler: func(req *http.Request) (*http.Response, error) {
			cancel()
			return jsonResponse(http.StatusOK, `{"access_token":"fresh-token"}`), nil
		},
	}
	tr, store := newTestTransport(t, backend, nil)
	store.SetCredentials(PrincipalUser, "stale", "refresh-1")

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.test/user_list", nil)
	_, err := tr.RoundTrip(req)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := backend.apiCalls.Load(); n != 1 {
		t.Errorf("canceled request was replayed: %d API calls", n)
	}
	if tok, _ := store.AccessToken(PrincipalUser); tok != "fresh-token" {
		t.Errorf("refresh result not stored despite completing: %q", tok)
	}
}

func TestNetworkErrorPassesThrough(t *testing.T) {
	netErr := errors.New("connection refused")
	backend := &testBackend{
		apiHandler: func(req *http.Request) (*http.Response, error) {
			return nil, netErr
		},
	}
	tr, store := newTestTransport(t, backend, nil)
	store.SetCredentials(PrincipalUser, "tok", "refresh")

	req, _ := http.NewRequest(http.MethodGet, "https://api.test/user_list", nil)
	_, err := tr.RoundTrip(req)
	if !errors.Is(err, netErr) {
		t.Fatalf("expected the transport error unwrapped, got %v", err)
	}
	var terminal *TerminalError
	if errors.As(err, &terminal) {
		t.Error("network failure must not be classified as terminal")
	}
	if n := backend.refreshCalls.Load(); n != 0 {
		t.Errorf("network failure triggered %d refresh calls", n)
	}
	if tok, _ := store.AccessToken(PrincipalUser); tok != "tok" {
		t.Error("network failure must not touch credentials")
	}
}
