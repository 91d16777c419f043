package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/debriefapp/debrief-cli/internal/domain"
)

// otpRequiredMarker is the substring the backend embeds in the error detail
// when a login additionally needs a one-time password.
const otpRequiredMarker = "TOTP"

// AuthClient talks to the Auth Backend. It implements auth.Backend and is
// the only HTTP path that does not carry a bearer credential: the login
// endpoint authenticates with the submitted credentials themselves.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthClient creates an Auth Backend client.
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AuthClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login submits credentials form-encoded, with captcha and OTP carried as
// headers when present.
func (c *AuthClient) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.NewInternalError("BAD_REQUEST", "Failed to build login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if creds.CaptchaToken != "" {
		req.Header.Set("X-Recaptcha-Token", creds.CaptchaToken)
	}
	if creds.OTP != "" {
		req.Header.Set("X-TOTP-Code", creds.OTP)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransportError("NO_CONNECTION", "Could not reach the authentication server", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.loginError(resp)
	}

	var result domain.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.NewTransportError("MALFORMED_RESPONSE", "Malformed login response", err)
	}
	return &result, nil
}

// Refresh exchanges the refresh token for a whole new session record.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResponse, error) {
	resp, err := c.postJSON(ctx, "/auth/refresh", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		apiErr := parseAPIError(resp.StatusCode, body)
		return nil, domain.NewAuthenticationError("REFRESH_FAILED", refreshFailureMessage(apiErr))
	}

	var result domain.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.NewTransportError("MALFORMED_RESPONSE", "Malformed refresh response", err)
	}
	return &result, nil
}

// Logout notifies the backend that the refresh token should be revoked. A
// failure here is non-fatal for the caller.
func (c *AuthClient) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.postJSON(ctx, "/auth/logout", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return parseAPIError(resp.StatusCode, body)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *AuthClient) postJSON(ctx context.Context, endpoint string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewInternalError("ENCODE_FAILED", "Failed to encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewInternalError("BAD_REQUEST", "Failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransportError("NO_CONNECTION", "Could not reach the authentication server", err)
	}
	return resp, nil
}

// loginError maps a failed login response. A 401 is always invalid
// credentials; a detail mentioning the OTP marker tells the login screen to
// present a second-factor input.
func (c *AuthClient) loginError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	apiErr := parseAPIError(resp.StatusCode, body)

	if strings.Contains(apiErr.Message, otpRequiredMarker) {
		return domain.NewAuthenticationError("OTP_REQUIRED", apiErr.Message)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return domain.NewAuthenticationError("INVALID_CREDENTIALS", "Invalid username or password")
	}
	if apiErr.Message != "" {
		return domain.NewAuthenticationError("LOGIN_FAILED", apiErr.Message)
	}
	return domain.NewAuthenticationError("LOGIN_FAILED", "Login failed")
}

// IsOTPRequired reports whether err asks for a one-time password.
func IsOTPRequired(err error) bool {
	var de *domain.Error
	return errors.As(err, &de) && de.Code == "OTP_REQUIRED"
}

func refreshFailureMessage(apiErr *APIError) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return "Invalid or expired refresh token"
}
