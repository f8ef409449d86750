// Package identity talks to the downstream identity service that owns user
// profiles. Resale handover calls are best-effort: one call per pending
// amendment, individual failures logged by the caller, nothing rolled back.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"offboard/internal/integration"
	"offboard/pkg/domain"
)

const (
	system         = "identity-service"
	defaultTimeout = time.Second

	sharedSecretHeader = "X-Integration-Key"
)

// Client calls the identity-service HTTP API.
type Client struct {
	baseURL      string
	sharedSecret string
	httpClient   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client; tests point it at a stub server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(baseURL, sharedSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		sharedSecret: sharedSecret,
		httpClient:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateProfileOnResale approves a pending profile amendment for a user who
// has fully exited the community.
func (c *Client) UpdateProfileOnResale(ctx context.Context, bearer string, userID domain.UserID, payload map[string]any) error {
	return c.put(ctx, bearer, fmt.Sprintf("/v1/users/%s/profile-on-resale", userID), payload)
}

// UpdateCommunicationDetailsOnResale approves a pending communication
// details amendment for a fully exited user.
func (c *Client) UpdateCommunicationDetailsOnResale(ctx context.Context, bearer string, userID domain.UserID, payload map[string]any) error {
	return c.put(ctx, bearer, fmt.Sprintf("/v1/users/%s/communication-on-resale", userID), payload)
}

func (c *Client) put(ctx context.Context, bearer, path string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return integration.NewError(integration.ErrorInternal, system, "encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return integration.NewError(integration.ErrorInternal, system, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sharedSecretHeader, c.sharedSecret)
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return integration.NewError(integration.ErrorTimeout, system, "call identity service", err)
		}
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return integration.NewError(integration.ErrorTimeout, system, "call identity service", err)
		}
		return integration.NewError(integration.ErrorOutage, system, "call identity service", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return integration.NewError(integration.ErrorAuthentication, system, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return integration.NewError(integration.ErrorOutage, system, fmt.Sprintf("status %d", resp.StatusCode), nil)
	default:
		return integration.NewError(integration.ErrorBadData, system, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
}
