// Package client is a Go client for the Quiltfolk HTTP API. It keeps
// the session cookie in a jar and caches the authenticated user so
// callers can ask "who am I" without a round trip per check.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/quiltfolk/quiltfolk/internal/shared"
	"github.com/quiltfolk/quiltfolk/internal/subscription"
)

// ErrStaleSession reports that the server holds a session for an
// account that no longer exists. The client drops its cached state;
// the caller should prompt for a fresh login.
var ErrStaleSession = errors.New("client: session refers to a deleted account")

// User mirrors the account shape the API returns.
type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"firstName"`
	Status             string     `json:"status"`
	SubscriptionStatus string     `json:"subscriptionStatus"`
	TrialEndsAt        *time.Time `json:"trialEndsAt"`
	SubscriptionPlan   string     `json:"subscriptionPlan"`
	DisplayName        string     `json:"displayName"`
}

// APIError carries a non-2xx response back to the caller.
type APIError struct {
	Status int
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: api error %d: %s", e.Status, e.Reason)
}

// Client talks to one Quiltfolk server on behalf of one member.
// Methods are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu        sync.Mutex
	user      *User
	csrfToken string
}

// New constructs a Client for the given base URL.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}, nil
}

// RegisterInput carries the signup fields.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	Status    string `json:"status,omitempty"`
}

// Register creates an account and caches the signed-in user.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", in, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	c.setUser(&user)
	return &user, nil
}

// Login authenticates and caches the signed-in user.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	var user User
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &user, http.StatusOK); err != nil {
		return nil, err
	}
	c.setUser(&user)
	return &user, nil
}

// Logout ends the session and clears the cached user. A 401 means the
// session was already gone, which is not an error for logout.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, http.StatusOK)
	c.clear()
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return nil
	}
	return err
}

// CurrentUser returns the authenticated user, refreshing the cache
// from the server. A plain 401 means nobody is signed in and returns
// (nil, nil). A 404 means the account behind the session vanished and
// returns ErrStaleSession.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/user", nil, &user, http.StatusOK)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusUnauthorized:
				c.clear()
				return nil, nil
			case http.StatusNotFound:
				c.clear()
				return nil, ErrStaleSession
			}
		}
		return nil, err
	}
	c.setUser(&user)
	return &user, nil
}

// CachedUser returns the last user seen by Login, Register or
// CurrentUser without a network call, or nil when signed out.
func (c *Client) CachedUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	copied := *c.user
	return &copied
}

// IsAuthenticated reports whether the client has a signed-in user
// cached. It does not consult the server.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

// HasActiveSubscription reports whether the cached user may reach
// subscriber-only features right now. Trials count until they lapse,
// which this check recomputes on every call rather than trusting a
// flag captured at login time.
func (c *Client) HasActiveSubscription() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return false
	}
	return subscription.Active(c.user.SubscriptionStatus, c.user.TrialEndsAt, time.Now().UTC())
}

func (c *Client) setUser(u *User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
}

func (c *Client) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	c.csrfToken = ""
}

// ensureCSRF fetches a token once per session and reuses it for
// subsequent mutating calls.
func (c *Client) ensureCSRF(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/csrf", nil, &payload, http.StatusOK); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.csrfToken = payload.CSRFToken
	c.mu.Unlock()
	return payload.CSRFToken, nil
}

func csrfRequired(method, path string) bool {
	if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
		return false
	}
	return path != "/api/auth/login" && path != "/api/auth/register"
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, wantStatus int) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrfRequired(method, path) {
		token, err := c.ensureCSRF(ctx)
		if err != nil {
			return err
		}
		req.Header.Set(shared.CSRFHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		return &APIError{Status: resp.StatusCode, Reason: problemReason(resp)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// problemReason extracts the detail from an RFC 7807 body, falling
// back to the status text.
func problemReason(resp *http.Response) string {
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
		if problem.Detail != "" {
			return problem.Detail
		}
		if problem.Title != "" {
			return problem.Title
		}
	}
	return http.StatusText(resp.StatusCode)
}
