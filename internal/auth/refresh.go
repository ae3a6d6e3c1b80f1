package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tourmaster/tourctl/internal/logging"
)

// refreshResponse is the refresh endpoint's success body.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// refreshErrorResponse is the backend's error body shape.
type refreshErrorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Coordinator performs the refresh-token exchange and writes the renewed
// access token back to the correct principal. It never clears credentials or
// forces a logout; reacting to a failed exchange is the transport's job.
type Coordinator struct {
	httpClient *http.Client
	endpoint   string
	store      *Store
}

// NewCoordinator creates a refresh coordinator posting to the given endpoint
// URL. If httpClient is nil, a default client with 30s timeout is used. The
// endpoint is taken as-is from configuration; the backend has been observed
// with and without a trailing slash, so no path rewriting happens here.
func NewCoordinator(httpClient *http.Client, endpoint string, store *Store) *Coordinator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Coordinator{
		httpClient: httpClient,
		endpoint:   endpoint,
		store:      store,
	}
}

// Exchange performs exactly one refresh call and, on success, stores the new
// access token on the active principal, preserving that principal's existing
// refresh token. The refresh token presented to the backend follows the same
// precedence as bearer selection: User first, then Admin.
//
// Returns ErrNoRefreshToken without any network call when neither principal
// holds a refresh token.
func (c *Coordinator) Exchange(ctx context.Context) (string, error) {
	refreshToken, ok := c.refreshTokenByPrecedence()
	if !ok {
		return "", ErrNoRefreshToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader("{}"))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute refresh request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseRefreshError(body, resp.StatusCode)
	}

	var tokenResp refreshResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", &RefreshError{StatusCode: resp.StatusCode, Message: "response contained no access token"}
	}

	role, ok := c.store.ActiveRole()
	if !ok {
		return "", ErrNoActiveRole
	}

	// The refresh token is not rotated in this flow: keep whatever the
	// target principal already holds.
	existingRefresh, _ := c.store.RefreshToken(role)
	c.store.SetCredentials(role, tokenResp.AccessToken, existingRefresh)

	logging.Debug("access token refreshed", "role", role.String())
	return tokenResp.AccessToken, nil
}

// refreshTokenByPrecedence returns the first available refresh token,
// checking User before Admin.
func (c *Coordinator) refreshTokenByPrecedence() (string, bool) {
	for _, p := range principals {
		if tok, ok := c.store.RefreshToken(p); ok {
			return tok, true
		}
	}
	return "", false
}

// parseRefreshError maps a non-2xx refresh response body to a RefreshError.
func parseRefreshError(body []byte, statusCode int) error {
	var errResp refreshErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &RefreshError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	}
	msg := errResp.Message
	if msg == "" {
		msg = errResp.Detail
	}
	return &RefreshError{StatusCode: statusCode, Message: msg}
}
