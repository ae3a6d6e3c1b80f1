package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tourmaster/tourctl/internal/auth"
	"github.com/tourmaster/tourctl/internal/backoff"
	"github.com/tourmaster/tourctl/internal/logging"
)

// Notifier surfaces user-visible notices (the CLI analog of the front end's
// toast messages). Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// Client is the REST client for the Tour Master backend. Authentication and
// 401 recovery live in the transport the supplied http.Client carries; this
// layer classifies everything else and encodes/decodes JSON bodies.
type Client struct {
	httpClient *http.Client
	baseURL    string
	store      *auth.Store
	backoff    *backoff.GlobalBackoff
	notifier   Notifier
	maxRetries int
}

// NewClient creates a backend client. If httpClient is nil, a default client
// with 60s timeout is created (without the auth transport — callers wanting
// authenticated traffic must pass a wired client). If notifier is nil,
// notices are dropped.
func NewClient(httpClient *http.Client, baseURL string, store *auth.Store, bo *backoff.GlobalBackoff, notifier Notifier, maxRetries int) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		store:      store,
		backoff:    bo,
		notifier:   notifier,
		maxRetries: maxRetries,
	}
}

// Store exposes the credential store backing this client.
func (c *Client) Store() *auth.Store {
	return c.store
}

// doRequest performs one request and classifies the outcome.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	if c.backoff != nil {
		if err := c.backoff.WaitIfNeeded(ctx); err != nil {
			return nil, err
		}
	}

	url := c.baseURL + path
	logging.Debug("API request", "method", method, "url", url)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, method, url, err)
	}
	logging.Debug("API response", "method", method, "url", url, "status", resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		if c.backoff != nil {
			c.backoff.ReportSuccess()
		}
		return resp, nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	return nil, c.classifyStatus(resp.StatusCode, string(respBody))
}

// classifyTransportError distinguishes a dead session from a dead network.
// By the time a terminal auth error escapes the transport, credentials are
// already cleared and the logout hook has fired; this layer only translates
// it for the caller.
func (c *Client) classifyTransportError(ctx context.Context, method, url string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if auth.IsTerminal(err) {
		apiErr := NewAPIError(http.StatusUnauthorized, fmt.Sprintf("session expired: %v", err))
		apiErr.Fatal = true
		return apiErr
	}

	logging.Error("request failed", "method", method, "url", url, "error", err)
	c.notifier.Notify("Network error. Please check your connection.")
	return &NetworkError{Err: err}
}

// classifyStatus maps an error status to the taxonomy callers handle.
func (c *Client) classifyStatus(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized:
		// The transport already spent its one refresh+replay on this
		// request, so a 401 surfacing here is terminal.
		apiErr := NewAPIError(status, "authentication failed after token refresh")
		apiErr.Fatal = true
		return apiErr

	case status == http.StatusForbidden:
		c.notifier.Notify("Permission denied!")
		return NewAPIError(status, fmt.Sprintf("permission denied (status %d): %s", status, body))

	case status == http.StatusNotFound:
		// Silent: callers decide how to present a missing resource.
		return NewAPIError(status, fmt.Sprintf("not found (status %d)", status))

	case status == http.StatusTooManyRequests:
		if c.backoff != nil {
			c.backoff.ReportError()
		}
		return NewAPIError(status, fmt.Sprintf("rate limited (status %d): %s", status, body))

	case status >= 500:
		logging.Error("server error", "status", status, "body", truncateString(body, 2000))
		return NewAPIError(status, fmt.Sprintf("server error (status %d)", status))

	default:
		return NewAPIError(status, fmt.Sprintf("API error (status %d): %s", status, body))
	}
}

// doRequestWithRetry retries rate-limited requests; everything else fails on
// the first attempt. The wait between attempts is owned by the shared global
// backoff, which doRequest consults before dispatching.
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("retry attempt", "attempt", attempt+1, "max", c.maxRetries, "path", path)
		}

		resp, err := c.doRequest(ctx, method, path, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Retryable {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, lastErr)
}

// getJSON fetches path and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.doRequestWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return parseJSONResponse(resp, v)
}

// sendJSON dispatches a mutation and decodes the `{message}` response.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload any) (string, error) {
	resp, err := c.doRequestWithRetry(ctx, method, path, payload)
	if err != nil {
		return "", err
	}
	var msg MessageResponse
	if err := parseJSONResponse(resp, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

// parseJSONResponse reads and parses a JSON response body.
func parseJSONResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		logging.Error("failed to parse JSON response",
			"url", resp.Request.URL.String(),
			"status", resp.StatusCode,
			"body", truncateString(string(body), 2000))
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...[truncated]"
}
