// Package backend talks to the manufacturing backend's HTTP surface: the
// snapshot pull endpoints and the event publish endpoint.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sd "shopfloor_dashboard"
	"shopfloor_dashboard/internal/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Pull endpoint paths, relative to the API origin.
const (
	pathMachines = "/machines"
	pathOrders   = "/orders"
	pathSafety   = "/safety_logs"
	pathLogs     = "/logs"
	pathPublish  = "/publish_event"

	// DefaultTimeout bounds every request unless WithTimeout overrides it.
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20 // 8 MB
	errBodyPreview = 256
)

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client is an HTTP client for the backend API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	asyncPublish bool
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithAsyncPublish asks the backend to enqueue published events instead of
// processing them before acknowledging.
func WithAsyncPublish(async bool) Option {
	return func(c *Client) { c.asyncPublish = async }
}

// NewClient builds a client for the API rooted at baseURL (e.g. http://localhost:8000).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchMachines pulls the machines collection.
func (c *Client) FetchMachines(ctx context.Context) ([]models.Machine, error) {
	var out []models.Machine
	if err := c.getJSON(ctx, pathMachines, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchOrders pulls the orders collection.
func (c *Client) FetchOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.getJSON(ctx, pathOrders, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSafetyIncidents pulls the safety log collection.
func (c *Client) FetchSafetyIncidents(ctx context.Context) ([]models.SafetyIncident, error) {
	var out []models.SafetyIncident
	if err := c.getJSON(ctx, pathSafety, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchLogs pulls the action log, newest entry first.
func (c *Client) FetchLogs(ctx context.Context) ([]models.LogEntry, error) {
	var out []models.LogEntry
	if err := c.getJSON(ctx, pathLogs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Publish posts ev to the backend. Any transport error or non-2xx status is an error.
func (c *Client) Publish(ctx context.Context, ev sd.PublishEvent) (sd.PublishAck, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return sd.PublishAck{}, fmt.Errorf("encode event: %w", err)
	}

	endpoint := c.baseURL + pathPublish
	if c.asyncPublish {
		endpoint += "?async_mode=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return sd.PublishAck{}, fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var ack sd.PublishAck
	if err := c.do(req, &ack); err != nil {
		return sd.PublishAck{}, fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return ack, nil
}

// getJSON issues a GET for path and decodes the body into dst.
func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if err := c.do(req, dst); err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

// do executes req and decodes a JSON response body into dst.
func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, resp.Status, preview(body))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func preview(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > errBodyPreview {
		return s[:errBodyPreview] + "..."
	}
	return s
}
