// Package pushapi implements push.Client over the backend's HTTP API.
package pushapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hay-kot/casa/internal/core/push"
)

// DefaultTimeout bounds a single registration request.
const DefaultTimeout = 10 * time.Second

// Client registers devices with POST {endpoint}/devices.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a client for the given base endpoint. A zero timeout uses
// DefaultTimeout.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("register device: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("register device: unexpected status %d: %s", e.Code, e.Body)
}

// RegisterDevice sends device using accessToken as bearer credentials.
func (c *Client) RegisterDevice(ctx context.Context, accessToken string, device push.Device) error {
	body, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("encode device: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/devices", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
