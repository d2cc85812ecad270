// Package github is a thin typed client for the subset of the GitHub REST
// and OAuth APIs the credential core depends on: org/user lookup, App
// metadata, installation listing, installation token issuance, and the
// device authorization pair of endpoints.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	dErrors "repocomply/pkg/domain-errors"
)

const (
	defaultAPIBaseURL   = "https://api.github.com"
	defaultOAuthBaseURL = "https://github.com"

	acceptHeader     = "application/vnd.github+json"
	apiVersionHeader = "2022-11-28"

	// deviceFlowScope is the only scope the device flow ever requests: the
	// resulting token identifies a human, it never authorizes API calls.
	deviceFlowScope = "read:user"
)

// Client issues authenticated requests against the GitHub REST API and the
// OAuth endpoints on github.com. Base URLs are injectable for tests.
type Client struct {
	apiBaseURL   string
	oauthBaseURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

type Option func(*Client)

func WithAPIBaseURL(u string) Option {
	return func(c *Client) {
		c.apiBaseURL = u
	}
}

func WithOAuthBaseURL(u string) Option {
	return func(c *Client) {
		c.oauthBaseURL = u
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBaseURL:   defaultAPIBaseURL,
		oauthBaseURL: defaultOAuthBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Organization fetches an organization profile. Used as the read-only probe
// that validates a credential during connect.
func (c *Client) Organization(ctx context.Context, token, org string) (*Organization, error) {
	var out Organization
	if err := c.api(ctx, http.MethodGet, "/orgs/"+url.PathEscape(org), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// User fetches a user profile by login. The response carries the canonical,
// case-corrected login.
func (c *Client) User(ctx context.Context, token, username string) (*User, error) {
	var out User
	if err := c.api(ctx, http.MethodGet, "/users/"+url.PathEscape(username), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthenticatedUser resolves the identity behind an OAuth access token.
func (c *Client) AuthenticatedUser(ctx context.Context, accessToken string) (*User, error) {
	var out User
	if err := c.api(ctx, http.MethodGet, "/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// App fetches the authenticated App's own metadata using a signed App
// assertion. The client_id in the response enables the device flow.
func (c *Client) App(ctx context.Context, appJWT string) (*App, error) {
	var out App
	if err := c.api(ctx, http.MethodGet, "/app", appJWT, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInstallations lists every installation visible to the App identity.
func (c *Client) ListInstallations(ctx context.Context, appJWT string) ([]Installation, error) {
	var out []Installation
	if err := c.api(ctx, http.MethodGet, "/app/installations", appJWT, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateInstallationToken exchanges an App assertion for a short-lived
// installation-scoped access token.
func (c *Client) CreateInstallationToken(ctx context.Context, appJWT string, installationID int64) (*InstallationToken, error) {
	path := fmt.Sprintf("/app/installations/%d/access_tokens", installationID)
	var out InstallationToken
	if err := c.api(ctx, http.MethodPost, path, appJWT, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestDeviceCode starts a device authorization and returns the code the
// user must enter along with the server-declared polling interval.
func (c *Client) RequestDeviceCode(ctx context.Context, clientID string) (*DeviceCode, error) {
	body := map[string]string{
		"client_id": clientID,
		"scope":     deviceFlowScope,
	}
	var out DeviceCode
	if err := c.oauth(ctx, "/login/device/code", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollDeviceToken asks the token endpoint once for the outcome of a pending
// device authorization. Protocol-level outcomes (authorization_pending,
// slow_down, expired_token, access_denied) come back in DeviceToken.Error
// with a 200 status; only transport and HTTP failures return a Go error.
func (c *Client) PollDeviceToken(ctx context.Context, clientID, deviceCode string) (*DeviceToken, error) {
	body := map[string]string{
		"client_id":   clientID,
		"device_code": deviceCode,
		"grant_type":  "urn:ietf:params:oauth:grant-type:device_code",
	}
	var out DeviceToken
	if err := c.oauth(ctx, "/login/oauth/access_token", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// api issues a REST call with a bearer credential and decodes the response,
// mapping failure statuses onto the domain error taxonomy.
func (c *Client) api(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersionHeader)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeAPI, "github request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeAPI, "failed to decode github response")
	}
	return nil
}

// oauth issues an unauthenticated POST against the OAuth endpoints, which
// live on github.com rather than the API host and speak plain JSON.
func (c *Client) oauth(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthBaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeAPI, "github oauth request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return dErrors.API(resp.StatusCode, fmt.Sprintf("oauth endpoint returned %d: %s", resp.StatusCode, string(text)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeAPI, "failed to decode oauth response")
	}
	return nil
}

// statusError maps an HTTP failure status onto the domain taxonomy:
// 401 bad credential, 403 rate limit (when the quota header reads zero) or
// permission, 404 absent resource, everything else the API catch-all.
func (c *Client) statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return dErrors.New(dErrors.CodeUnauthorized, "github rejected the credential")
	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			reset := time.Time{}
			if epoch, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
				reset = time.Unix(epoch, 0)
			}
			return dErrors.RateLimited(reset)
		}
		return dErrors.New(dErrors.CodeForbidden, "credential lacks the required permission")
	case http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "github resource not found")
	default:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return dErrors.API(resp.StatusCode, fmt.Sprintf("github returned %d: %s", resp.StatusCode, string(text)))
	}
}
