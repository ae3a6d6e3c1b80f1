package api

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

	"github.com/tourmaster/tourctl/internal/auth"
	"github.com/tourmaster/tourctl/internal/backoff"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func fastBackoff() *backoff.GlobalBackoff {
	return backoff.New(backoff.Config{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		Multiplier:          2.0,
		RandomizationFactor: 0,
	})
}

func newTestClient(t *testing.T, handler roundTripFunc) (*Client, *auth.Store, *recordingNotifier) {
	t.Helper()
	store, err := auth.NewStore(auth.NopKeeper{})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	notifier := &recordingNotifier{}
	httpClient := &http.Client{Transport: handler}
	client := NewClient(httpClient, "https://api.test", store, fastBackoff(), notifier, 3)
	return client, store, notifier
}

func TestLoginStoresUserCredentials(t *testing.T) {
	client, store, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/LoginView" {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(req, http.StatusOK, `{
			"message": "Login successful",
			"user_role": "user",
			"user_name": "alice",
			"user_access_token": "ua-1",
			"user_refresh_token": "ur-1"
		}`), nil
	})

	resp, err := client.Login(context.Background(), LoginRequest{Email: "a@x.test", Password: "pw"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.UserName != "alice" {
		t.Errorf("UserName = %q", resp.UserName)
	}
	if tok, _ := store.AccessToken(auth.PrincipalUser); tok != "ua-1" {
		t.Errorf("user access token = %q", tok)
	}
	if tok, _ := store.RefreshToken(auth.PrincipalUser); tok != "ur-1" {
		t.Errorf("user refresh token = %q", tok)
	}
	if store.IsAuthenticated(auth.PrincipalAdmin) {
		t.Error("user login touched the admin record")
	}
}

func TestLoginStoresAdminCredentials(t *testing.T) {
	client, store, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, `{
			"message": "Login successful",
			"admin_role": "admin",
			"admin_access_token": "aa-1",
			"admin_refresh_token": "ar-1"
		}`), nil
	})

	if _, err := client.Login(context.Background(), LoginRequest{}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if tok, _ := store.AccessToken(auth.PrincipalAdmin); tok != "aa-1" {
		t.Errorf("admin access token = %q", tok)
	}
	if store.IsAuthenticated(auth.PrincipalUser) {
		t.Error("admin login touched the user record")
	}
}

func TestLoginWithoutCredentialsInResponse(t *testing.T) {
	client, store, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, `{"message":"ok"}`), nil
	})

	if _, err := client.Login(context.Background(), LoginRequest{}); err == nil {
		t.Fatal("expected an error for a tokenless login response")
	}
	if store.IsAuthenticated(auth.PrincipalUser) || store.IsAuthenticated(auth.PrincipalAdmin) {
		t.Error("store mutated by a failed login")
	}
}

func TestLogoutClearsLocallyEvenOnServerFailure(t *testing.T) {
	client, store, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusInternalServerError, `{}`), nil
	})
	store.SetCredentials(auth.PrincipalUser, "ua", "ur")

	if _, err := client.Logout(context.Background(), auth.PrincipalUser); err == nil {
		t.Fatal("expected the server failure to surface")
	}
	if store.IsAuthenticated(auth.PrincipalUser) {
		t.Error("local credentials kept after failed logout")
	}
}

func TestForbiddenNotifies(t *testing.T) {
	var calls atomic.Int64
	client, _, notifier := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(req, http.StatusForbidden, `{"detail":"admins only"}`), nil
	})

	_, err := client.ListUsers(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("403 was retried: %d calls", n)
	}
	msgs := notifier.all()
	if len(msgs) != 1 || msgs[0] != "Permission denied!" {
		t.Errorf("unexpected notifications: %v", msgs)
	}
}

func TestNotFoundIsSilent(t *testing.T) {
	client, _, notifier := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusNotFound, `{}`), nil
	})

	_, err := client.GetPackage(context.Background(), 42)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if msgs := notifier.all(); len(msgs) != 0 {
		t.Errorf("404 produced notifications: %v", msgs)
	}
}

func TestRateLimitedRequestIsRetried(t *testing.T) {
	var calls atomic.Int64
	client, _, notifier := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return jsonResponse(req, http.StatusTooManyRequests, `{}`), nil
		}
		return jsonResponse(req, http.StatusOK, `[]`), nil
	})

	if _, err := client.ListUsers(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
	if msgs := notifier.all(); len(msgs) != 0 {
		t.Errorf("rate limiting produced notifications: %v", msgs)
	}
}

func TestServerErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	client, _, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(req, http.StatusInternalServerError, `{}`), nil
	})

	_, err := client.ListUsers(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
	if apiErr.Retryable {
		t.Error("server errors must not be marked retryable")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("500 was retried: %d calls", n)
	}
}

func TestNetworkErrorNotifiesAndWraps(t *testing.T) {
	client, _, notifier := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	_, err := client.ListUsers(context.Background())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	msgs := notifier.all()
	if len(msgs) != 1 || msgs[0] != "Network error. Please check your connection." {
		t.Errorf("unexpected notifications: %v", msgs)
	}
}

func TestTerminalAuthErrorBecomesFatal(t *testing.T) {
	client, _, notifier := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, &auth.TerminalError{Err: auth.ErrNoRefreshToken}
	})

	_, err := client.ListUsers(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if !apiErr.Fatal || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected fatal 401 classification, got %+v", apiErr)
	}
	if msgs := notifier.all(); len(msgs) != 0 {
		t.Errorf("terminal auth error produced network notifications: %v", msgs)
	}
}

func TestCanceledContextWinsClassification(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client, _, notifier := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		cancel()
		return nil, errors.New("request canceled")
	})

	_, err := client.ListUsers(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if msgs := notifier.all(); len(msgs) != 0 {
		t.Errorf("cancellation produced notifications: %v", msgs)
	}
}

func TestListPackagesDecodes(t *testing.T) {
	client, _, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/admin-tourpackages" {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(req, http.StatusOK, `[
			{"id": 1, "package_name": "Bali Escape", "days": 5, "nights": 4, "price": 899.0, "is_active": true},
			{"id": 2, "package_name": "Alps Trek", "days": 7, "nights": 6, "price": 1299.5, "is_active": false}
		]`), nil
	})

	packages, err := client.ListPackages(context.Background())
	if err != nil {
		t.Fatalf("ListPackages failed: %v", err)
	}
	if len(packages) != 2 {
		t.Fatalf("got %d packages, want 2", len(packages))
	}
	if packages[0].Name != "Bali Escape" || packages[1].Price != 1299.5 {
		t.Errorf("unexpected decode: %+v", packages)
	}
}

func TestFetchCollectionKeepsUnknownFields(t *testing.T) {
	client, _, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, `[{"id":1,"surprise_field":"kept"}]`), nil
	})

	records, err := client.FetchCollection(context.Background(), Collection{Name: "users", Path: "/user_list"})
	if err != nil {
		t.Fatalf("FetchCollection failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if !strings.Contains(string(records[0]), "surprise_field") {
		t.Errorf("raw record lost fields: %s", records[0])
	}
}
