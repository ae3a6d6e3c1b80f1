package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tourmaster/tourctl/internal/auth"
	"github.com/tourmaster/tourctl/internal/logging"
)

// Login authenticates against /LoginView and stores whichever principal's
// tokens the backend issued. The response tells the caller which role logged
// in and the backend's welcome message.
func (c *Client) Login(ctx context.Context, creds LoginRequest) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/LoginView", creds)
	if err != nil {
		return nil, err
	}

	var loginResp LoginResponse
	if err := parseJSONResponse(resp, &loginResp); err != nil {
		return nil, err
	}

	switch {
	case loginResp.UserRole == "user" && loginResp.UserAccessToken != "":
		c.store.SetCredentials(auth.PrincipalUser, loginResp.UserAccessToken, loginResp.UserRefreshToken)
		logging.Info("logged in", "role", "user")
	case loginResp.AdminRole == "admin" && loginResp.AdminAccessToken != "":
		c.store.SetCredentials(auth.PrincipalAdmin, loginResp.AdminAccessToken, loginResp.AdminRefreshToken)
		logging.Info("logged in", "role", "admin")
	default:
		return nil, fmt.Errorf("login response carried no recognizable credentials")
	}

	return &loginResp, nil
}

// Logout revokes the given principal's session server-side and clears its
// credentials locally. The local clear happens even when the server call
// fails: a dead session should not pin stale tokens on disk.
func (c *Client) Logout(ctx context.Context, p auth.Principal) (string, error) {
	path := "/user_logout"
	if p == auth.PrincipalAdmin {
		path = "/admin_logout"
	}

	msg, err := c.sendJSON(ctx, http.MethodPut, path, nil)
	c.store.ClearCredentials(p)
	if err != nil {
		return "", err
	}

	logging.Info("logged out", "role", p.String())
	return msg, nil
}

// Register creates a new customer account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	return c.sendJSON(ctx, http.MethodPost, "/Register", req)
}

// VerifyOTP completes signup by confirming the one-time code sent by email.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	payload := map[string]string{"email": email, "otp": otp}
	return c.sendJSON(ctx, http.MethodPost, "/OTPVerification", payload)
}

// ResendOTP requests a fresh one-time code for a pending signup.
func (c *Client) ResendOTP(ctx context.Context, email string) (string, error) {
	payload := map[string]string{"email": email}
	return c.sendJSON(ctx, http.MethodPost, "/ResendOTPVerification", payload)
}

// VerifyEmail confirms an email verification link token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	payload := map[string]string{"token": token}
	return c.sendJSON(ctx, http.MethodPost, "/verify-email", payload)
}
