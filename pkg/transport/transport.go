package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

// Client posts league messages to a participant endpoint. One client is
// shared per agent; the timeout bounds every single call.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client with the given per-call timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Post sends payload as JSON to endpoint+path and decodes the response
// into out when out is non-nil. token, when set, is also sent as a bearer
// header so receivers can authorize before parsing the body.
func (c *Client) Post(ctx context.Context, endpoint, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return xerrors.Errorf("encode payload: %w", err)
	}

	url := strings.TrimSuffix(endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return xerrors.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return xerrors.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return xerrors.Errorf("post %s: status %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return xerrors.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
