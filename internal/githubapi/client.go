// Package githubapi is the authenticated GitHub REST client used by the
// auth subsystem. It covers exactly the two calls the subsystem needs —
// the identity check and the profile fetch — and keeps the process-wide
// rate-limit window up to date from response headers.
package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ghnav/cli/internal/schema"
)

// DefaultBaseURL is the GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

const acceptHeader = "application/vnd.github.v3+json"

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	Status      int
	Message     string
	RateLimited bool
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("github api: request failed with status %d", e.Status)
}

// IdentityCheck is the outcome of a successful round-trip to the identity
// endpoint. RateLimited distinguishes a 403 caused by an exhausted quota
// from a 403 caused by missing scopes or a suspended account.
type IdentityCheck struct {
	Status      int
	RateLimited bool
}

// OK reports whether the identity endpoint accepted the token.
func (c IdentityCheck) OK() bool {
	return c.Status >= 200 && c.Status < 300
}

// Client issues authenticated requests against the GitHub REST API.
type Client struct {
	baseURL string
	http    *http.Client
	limits  *RateLimits
}

// NewClient creates a client. limits is shared with whoever needs to
// observe the rate-limit window (typically the token validator).
func NewClient(baseURL string, httpClient *http.Client, limits *RateLimits) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if limits == nil {
		limits = NewRateLimits()
	}
	return &Client{baseURL: baseURL, http: httpClient, limits: limits}
}

// Limits returns the rate-limit tracker fed by this client's responses.
func (c *Client) Limits() *RateLimits {
	return c.limits
}

func (c *Client) newRequest(ctx context.Context, method, path, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", acceptHeader)
	return req, nil
}

// CheckIdentity performs the identity check: an authenticated GET /user
// that only cares about the response status. The rate-limit window is
// refreshed from the response headers regardless of status.
func (c *Client) CheckIdentity(ctx context.Context, token string) (IdentityCheck, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user", token)
	if err != nil {
		return IdentityCheck{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return IdentityCheck{}, err
	}
	defer resp.Body.Close()

	c.limits.Update(resp.Header)

	return IdentityCheck{
		Status:      resp.StatusCode,
		RateLimited: resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0",
	}, nil
}

// FetchProfile fetches and validates the authenticated user's profile.
func (c *Client) FetchProfile(ctx context.Context, token string) (*schema.Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user", token)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.limits.Update(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:      resp.StatusCode,
			RateLimited: resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0",
		}
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Message = body.Message
		}
		return nil, apiErr
	}

	var profile schema.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding profile response: %w", err)
	}
	if err := schema.Validate(profile, "user profile"); err != nil {
		return nil, err
	}

	return &profile, nil
}
