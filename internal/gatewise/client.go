// Package gatewise is the outbound client for the third-party gate control
// API. One attempt per call, hard timeout, classified failures. A failed
// relay never surfaces as a Go error: the caller treats it as "gate did not
// open", not as a request failure.
package gatewise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/platebridge/portal/internal/model"
)

// RequestTimeout bounds every relay call. The surrounding detection request
// has no independent cancellation signal, so this is the only clock.
const RequestTimeout = 10 * time.Second

// Failure classifications.
const (
	ErrAuthFailed          = "auth_failed"
	ErrAccessPointNotFound = "access_point_not_found"
	ErrConnection          = "connection_error"
	ErrUpstream            = "upstream_error"
)

// Result is the classified outcome of one gate trigger attempt.
type Result struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: RequestTimeout}}
}

// NewClientWithTimeout is used by tests and health checks that need a
// shorter bound.
func NewClientWithTimeout(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// TriggerGate POSTs an open command for the community's configured access
// point. At most one attempt; never retried.
func (c *Client) TriggerGate(ctx context.Context, cfg *model.GatewiseConfig) Result {
	url := fmt.Sprintf("%s/communities/%s/access-points/%s/open",
		strings.TrimRight(cfg.APIEndpoint, "/"),
		cfg.GatewiseCommunityID, cfg.GatewiseAccessPointID)

	payload, err := json.Marshal(map[string]string{"source": "platebridge"})
	if err != nil {
		return Result{Success: false, Error: ErrConnection}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{Success: false, Error: ErrConnection}
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout, DNS failure, refused connection. All collapse to one
		// classification; the audit log carries the distinction via zerolog.
		return Result{Success: false, Error: ErrConnection}
	}
	defer resp.Body.Close()

	return classify(resp.StatusCode)
}

func classify(status int) Result {
	switch {
	case status >= 200 && status < 300:
		return Result{Success: true, StatusCode: status}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Result{Success: false, StatusCode: status, Error: ErrAuthFailed}
	case status == http.StatusNotFound:
		return Result{Success: false, StatusCode: status, Error: ErrAccessPointNotFound}
	default:
		return Result{Success: false, StatusCode: status, Error: ErrUpstream}
	}
}
