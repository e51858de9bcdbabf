// Package api implements the HTTP client for the remote storefront REST API.
// Every operation funnels transport failures and non-2xx responses into a
// uniform Result value instead of returning raw errors, so callers branch on
// Result.Success the same way for every failure class.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"storefront/internal/models"
)

// Fallback message for responses that carry no structured message body.
const genericErrorMessage = "Something went wrong. Please try again."

// DefaultTimeout bounds every request. The upstream behavior had no timeout
// at all, which left a hung request spinning a loading indicator forever.
const DefaultTimeout = 15 * time.Second

// Result is the uniform outcome of an API operation.
type Result struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"-"`
}

// Unauthorized reports whether the operation failed with a 401, which the
// session manager treats as "session expired, re-verify".
func (r Result) Unauthorized() bool {
	return r.StatusCode == http.StatusUnauthorized
}

// Config holds client connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the storefront API. It keeps a cookie jar so the HTTP-only
// session cookie set by login rides along on every subsequent request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("api: failed to create cookie jar: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// envelope is the common response body shape: a human-readable message plus
// whichever resource the endpoint returns.
type envelope struct {
	Message string        `json:"message"`
	User    *models.User  `json:"user,omitempty"`
	Order   *models.Order `json:"order,omitempty"`
}

// call performs one request and maps the outcome into an envelope and Result.
// Network errors, non-2xx responses with a message body, and non-2xx
// responses without one all come back as Result{Success:false}.
func (c *Client) call(ctx context.Context, method, path string, body interface{}) (*envelope, Result) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, Result{Success: false, Message: genericErrorMessage}
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, Result{Success: false, Message: genericErrorMessage}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Result{Success: false, Message: "Network error. Please check your connection."}
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := genericErrorMessage
		if decodeErr == nil && env.Message != "" {
			message = env.Message
		}
		return nil, Result{Success: false, Message: message, StatusCode: resp.StatusCode}
	}

	if decodeErr != nil {
		// 2xx with an empty or malformed body still counts as success for
		// endpoints that return nothing useful (logout, reset requests).
		return &envelope{}, Result{Success: true, StatusCode: resp.StatusCode}
	}
	return &env, Result{Success: true, Message: env.Message, StatusCode: resp.StatusCode}
}

// Verify checks the current session cookie against the server.
func (c *Client) Verify(ctx context.Context) (*models.User, Result) {
	env, res := c.call(ctx, http.MethodGet, "/api/users/verify", nil)
	if !res.Success {
		return nil, res
	}
	if env.User == nil {
		return nil, Result{Success: false, Message: genericErrorMessage, StatusCode: res.StatusCode}
	}
	return env.User, res
}

// loginRequest is the body for Login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and stores the session cookie in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, Result) {
	env, res := c.call(ctx, http.MethodPost, "/api/users/login", loginRequest{Email: email, Password: password})
	if !res.Success {
		return nil, res
	}
	if env.User == nil {
		return nil, Result{Success: false, Message: genericErrorMessage, StatusCode: res.StatusCode}
	}
	return env.User, res
}

// Logout asks the server to clear the session cookie.
func (c *Client) Logout(ctx context.Context) Result {
	_, res := c.call(ctx, http.MethodPost, "/api/users/logout", nil)
	return res
}

// RegisterRequest is the body for Register.
type RegisterRequest struct {
	FirstName   string `json:"firstName" validate:"required,min=2,max=100"`
	LastName    string `json:"lastName" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,min=6,max=32"`
	Address     string `json:"address" validate:"omitempty,max=255"`
	Password    string `json:"password" validate:"required,min=6"`
}

// Register creates a new account. It does not authenticate; callers log in
// separately afterwards.
func (c *Client) Register(ctx context.Context, req RegisterRequest) Result {
	_, res := c.call(ctx, http.MethodPost, "/api/users/register", req)
	return res
}

// ProfileUpdate carries the fields a user may change on their profile. Empty
// fields are left untouched server-side.
type ProfileUpdate struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
}

// UpdateProfile applies a partial profile update and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.User, Result) {
	env, res := c.call(ctx, http.MethodPut, "/api/users/profile", update)
	if !res.Success {
		return nil, res
	}
	return env.User, res
}

// RequestPasswordReset asks the server to send a reset OTP to email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) Result {
	_, res := c.call(ctx, http.MethodPost, "/api/users/request-reset", map[string]string{"email": email})
	return res
}

// ResetPassword exchanges an OTP for a new password.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) Result {
	_, res := c.call(ctx, http.MethodPost, "/api/users/reset-password", map[string]string{
		"email":       email,
		"otp":         otp,
		"newPassword": newPassword,
	})
	return res
}

// CreateOrder submits the cart contents as a new order. Stock is checked
// server-side at this point, not when items were added to the cart.
func (c *Client) CreateOrder(ctx context.Context, items []models.OrderItem) (*models.Order, Result) {
	env, res := c.call(ctx, http.MethodPost, "/api/orders", map[string]interface{}{"items": items})
	if !res.Success {
		return nil, res
	}
	if env.Order == nil {
		return nil, Result{Success: false, Message: genericErrorMessage, StatusCode: res.StatusCode}
	}
	return env.Order, res
}

// ConfirmPayment verifies a payment provider transaction against the backend.
// An order is never treated as paid on the provider callback alone.
func (c *Client) ConfirmPayment(ctx context.Context, orderID, transactionID string) Result {
	_, res := c.call(ctx, http.MethodPost, "/api/payments/confirm", map[string]string{
		"orderId":       orderID,
		"transactionId": transactionID,
	})
	return res
}
