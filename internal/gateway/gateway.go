// Package gateway is the single outbound chokepoint for Domain Backend
// traffic. It attaches bearer credentials, short-circuits requests that are
// guaranteed to fail, and translates backend failures into user-facing
// notices while rethrowing the original error for local handling.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/debriefapp/debrief-cli/internal/auth"
	"github.com/debriefapp/debrief-cli/internal/domain"
)

// Notifier shows transient user-facing notices (the toast equivalent).
type Notifier interface {
	Error(message string)
}

// Navigator abstracts screen navigation so the gateway can force the user
// back to the login screen after a session failure.
type Navigator interface {
	AtLogin() bool
	ToLogin()
}

// Client is the Request Gateway. All Domain Backend calls go through it.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	session       *auth.Manager
	inspector     *auth.Inspector
	notifier      Notifier
	navigator     Navigator
	logger        *slog.Logger
	redirectDelay time.Duration
}

// Options carries the gateway collaborators and tunables.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RedirectDelay time.Duration
	Session       *auth.Manager
	Inspector     *auth.Inspector
	Notifier      Notifier
	Navigator     Navigator
	Logger        *slog.Logger
}

// New creates a gateway client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: opts.Timeout},
		session:       opts.Session,
		inspector:     opts.Inspector,
		notifier:      opts.Notifier,
		navigator:     opts.Navigator,
		logger:        opts.Logger,
		redirectDelay: opts.RedirectDelay,
	}
}

// Do performs a JSON request against the backend. The response body is the
// caller's to close. Error side effects (notices, session clearing,
// navigation) have already happened when an error is returned.
func (c *Client) Do(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, domain.NewInternalError("ENCODE_FAILED", "Failed to encode request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.dispatch(req)
}

// GetJSON performs a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}
	resp, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeJSON(resp.Body, out)
}

// PostJSON performs a POST and decodes the response into out (out may be nil).
func (c *Client) PostJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.exchange(ctx, http.MethodPost, endpoint, body, out)
}

// PutJSON performs a PUT and decodes the response into out (out may be nil).
func (c *Client) PutJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.exchange(ctx, http.MethodPut, endpoint, body, out)
}

// PatchJSON performs a PATCH and decodes the response into out (out may be nil).
func (c *Client) PatchJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.exchange(ctx, http.MethodPatch, endpoint, body, out)
}

// Delete performs a DELETE, discarding any response body.
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.exchange(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Download streams a binary response (report PDF/Excel) into dest.
func (c *Client) Download(ctx context.Context, endpoint string, dest io.Writer) error {
	resp, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := io.Copy(dest, resp.Body); err != nil {
		return domain.NewTransportError("DOWNLOAD_FAILED", "Download interrupted", err)
	}
	return nil
}

// UploadFile posts one file as multipart form data, with optional extra
// form fields, and decodes the response into out (out may be nil).
func (c *Client) UploadFile(ctx context.Context, endpoint, fieldName, fileName string, content io.Reader, fields map[string]string, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		return domain.NewInternalError("UPLOAD_ENCODE_FAILED", "Failed to build upload request", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return domain.NewInternalError("UPLOAD_ENCODE_FAILED", "Failed to build upload request", err)
	}
	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	if err := writer.Close(); err != nil {
		return domain.NewInternalError("UPLOAD_ENCODE_FAILED", "Failed to build upload request", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.dispatch(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	return decodeJSON(resp.Body, out)
}

func (c *Client) exchange(ctx context.Context, method, endpoint string, body, out interface{}) error {
	resp, err := c.Do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeJSON(resp.Body, out)
}

// newRequest builds the outbound request: URL, correlation ID, and the
// bearer credential. A token that is already expired short-circuits the
// request before it ever reaches the network; the session is cleared and the
// user is sent to the login screen. The check duplicates the one at session
// init on purpose, to tolerate clock drift between app start and request
// time.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, domain.NewInternalError("BAD_REQUEST", "Failed to build request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", uuid.New().String())

	token := c.session.Token()
	if token == "" || isLoginEndpoint(endpoint) {
		return req, nil
	}

	if c.inspector.IsExpired(token) {
		c.logger.Info("expired token detected before dispatch, clearing session")
		c.expireSession()
		return nil, domain.NewAuthenticationError("TOKEN_EXPIRED", "Session expired")
	}

	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

// dispatch sends the request and applies the inbound failure mapping.
func (c *Client) dispatch(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}

	if resp.StatusCode < 400 {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()

	apiErr := parseAPIError(resp.StatusCode, body)
	c.handleStatus(apiErr)
	return nil, statusError(apiErr)
}

// statusError lifts a backend failure into the domain error taxonomy. The
// APIError stays attached as the cause, so callers that need the raw status
// code or field errors can still unwrap it.
func statusError(apiErr *APIError) error {
	var de *domain.Error
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		de = domain.NewAuthenticationError("UNAUTHORIZED", "Session expired")
	case apiErr.StatusCode == http.StatusForbidden:
		de = domain.NewAuthorizationError("FORBIDDEN", "You do not have permission to access this resource")
	case apiErr.StatusCode == http.StatusNotFound:
		de = domain.NewNotFoundError("NOT_FOUND", "Resource not found")
	case apiErr.StatusCode == http.StatusUnprocessableEntity:
		message := apiErr.ValidationMessage()
		if message == "" {
			message = "Validation error in the submitted data"
		}
		de = domain.NewValidationError("VALIDATION_FAILED", message, nil)
	case apiErr.StatusCode >= 500:
		return domain.NewExternalServiceError("BACKEND_ERROR", "Backend request failed", apiErr)
	default:
		return apiErr
	}
	de.Cause = apiErr
	return de
}

// handleStatus maps backend failures to user-facing behavior by status
// class. The error itself is still returned to the caller afterwards.
func (c *Client) handleStatus(apiErr *APIError) {
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		c.expireSession()
	case http.StatusForbidden:
		c.notifier.Error("You do not have permission to access this resource.")
	case http.StatusNotFound:
		c.notifier.Error("Resource not found.")
	case http.StatusUnprocessableEntity:
		if msg := apiErr.ValidationMessage(); msg != "" {
			c.notifier.Error("Validation error: " + msg)
		} else {
			c.notifier.Error("Validation error in the submitted data.")
		}
	case http.StatusInternalServerError:
		c.notifier.Error("Server error. Please try again later.")
	case http.StatusServiceUnavailable:
		c.notifier.Error("Service temporarily unavailable.")
	default:
		if apiErr.Message != "" {
			c.notifier.Error(apiErr.Message)
		}
	}
}

// expireSession clears the local session and routes the user to the login
// screen. The notice fires only on the transition out of an authenticated
// session, so a burst of failing requests produces a single toast, and the
// redirect is delayed long enough for it to be read.
func (c *Client) expireSession() {
	wasAuthenticated := c.session.IsAuthenticated()
	c.session.ExpireLocally()

	if !wasAuthenticated || c.navigator.AtLogin() {
		return
	}

	c.notifier.Error("Session expired. Please sign in again.")
	if c.redirectDelay > 0 {
		time.AfterFunc(c.redirectDelay, c.navigator.ToLogin)
	} else {
		c.navigator.ToLogin()
	}
}

// transportError classifies network-level failures, shows the matching
// notice, and wraps the original error.
func (c *Client) transportError(err error) error {
	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())

	if timedOut {
		c.notifier.Error("Request timed out. Please try again.")
		return domain.NewTransportError("TIMEOUT", "Request timed out", err)
	}

	c.notifier.Error("Could not reach the server. Check your connection.")
	return domain.NewTransportError("NO_CONNECTION", "No connection to the server", err)
}

func isLoginEndpoint(endpoint string) bool {
	return strings.Contains(endpoint, "/auth/login")
}

func decodeJSON(r io.Reader, out interface{}) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return domain.NewInternalError("DECODE_FAILED", fmt.Sprintf("Failed to decode response: %v", err), err)
	}
	return nil
}
