// Package client is a small typed client for the parley HTTP API, used by
// the CLI commands that talk to a running server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parley-chat/parley/pkg/models"
)

// Client calls a parley server at BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for baseURL, e.g. http://127.0.0.1:8088.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e models.ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(body, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(body))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw, err = io.ReadAll(resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ExportRaw returns the full-data export exactly as the server sent it.
func (c *Client) ExportRaw(ctx context.Context) ([]byte, error) {
	var b []byte
	err := c.do(ctx, http.MethodGet, "/api/export/full-data", &b)
	return b, err
}

// Stats fetches the aggregate counts.
func (c *Client) Stats(ctx context.Context) (*models.Statistics, error) {
	var st models.Statistics
	if err := c.do(ctx, http.MethodGet, "/api/stats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Reconcile triggers a message-count repair pass.
func (c *Client) Reconcile(ctx context.Context) (*models.ReconcileResult, error) {
	var res models.ReconcileResult
	if err := c.do(ctx, http.MethodPost, "/api/admin/reconcile", &res); err != nil {
		return nil, err
	}
	return &res, nil
}
