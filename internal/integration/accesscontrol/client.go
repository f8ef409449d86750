// Package accesscontrol talks to the downstream access-control system that
// programs physical cards. Calls are best-effort with a short timeout; a
// failure here never blocks the rest of a revocation.
package accesscontrol

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
	system         = "access-control"
	defaultTimeout = time.Second

	sharedSecretHeader = "X-Integration-Key"
)

// CardRequest is the downstream system's view of an access-card request.
type CardRequest struct {
	ID       string `json:"id"`
	CardKind string `json:"cardKind"`
	Status   string `json:"status"`
}

// Client calls the access-control HTTP API.
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

// RequestsByUnit fetches the pair's card requests grouped by status.
func (c *Client) RequestsByUnit(ctx context.Context, bearer string, unitID domain.UnitID, userID domain.UserID) (map[string][]CardRequest, error) {
	endpoint := fmt.Sprintf("%s/v1/access-card-requests?unitId=%s&userId=%s",
		c.baseURL, url.QueryEscape(unitID.String()), url.QueryEscape(userID.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, integration.NewError(integration.ErrorInternal, system, "build request", err)
	}
	c.authorize(req, bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError("fetch card requests", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}

	var grouped map[string][]CardRequest
	if err := json.NewDecoder(resp.Body).Decode(&grouped); err != nil {
		return nil, integration.NewError(integration.ErrorBadData, system, "decode card requests", err)
	}
	return grouped, nil
}

// CreateCancellation raises a new cancellation request downstream for cards
// that are already programmed and cannot be undone locally.
func (c *Client) CreateCancellation(ctx context.Context, bearer, cardKind string, unitID domain.UnitID, actions []string) error {
	body, err := json.Marshal(map[string]any{
		"cardKind":   cardKind,
		"unitId":     unitID.String(),
		"actionList": actions,
	})
	if err != nil {
		return integration.NewError(integration.ErrorInternal, system, "encode cancellation", err)
	}

	endpoint := c.baseURL + "/v1/access-card-requests"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return integration.NewError(integration.ErrorInternal, system, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError("create cancellation request", err)
	}
	defer resp.Body.Close()

	return statusError(resp.StatusCode)
}

func (c *Client) authorize(req *http.Request, bearer string) {
	req.Header.Set(sharedSecretHeader, c.sharedSecret)
	req.Header.Set("Authorization", "Bearer "+bearer)
}

func (c *Client) transportError(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return integration.NewError(integration.ErrorTimeout, system, msg, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return integration.NewError(integration.ErrorTimeout, system, msg, err)
	}
	return integration.NewError(integration.ErrorOutage, system, msg, err)
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return integration.NewError(integration.ErrorAuthentication, system, fmt.Sprintf("status %d", code), nil)
	case code >= 500:
		return integration.NewError(integration.ErrorOutage, system, fmt.Sprintf("status %d", code), nil)
	default:
		return integration.NewError(integration.ErrorBadData, system, fmt.Sprintf("status %d", code), nil)
	}
}
