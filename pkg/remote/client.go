package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds each remote call
const DefaultTimeout = 10 * time.Second

// AppendRequest is one log entry for the ingestion endpoint.
type AppendRequest struct {
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id"`
	Level    string `json:"level"`
	Msg      string `json:"msg"`
}

// Response is the structured reply of the ingestion endpoint.
type Response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Reason returns the error field, then the message field, then a default.
func (r Response) Reason() string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Message != "":
		return r.Message
	default:
		return "Unknown error"
	}
}

// HealthStatus is the reply of the reachability probe.
type HealthStatus struct {
	OK      bool     `json:"ok"`
	Version string   `json:"php,omitempty"`
	Actions []string `json:"actions,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Reason returns why the probe failed.
func (h HealthStatus) Reason() string {
	switch {
	case h.Error != "":
		return h.Error
	case h.Message != "":
		return h.Message
	default:
		return "Health check returned ok=false"
	}
}

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Status)
}

// HTTPClient talks to the ingestion endpoint over HTTPS with a bearer token.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures an HTTPClient
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(h *HTTPClient) {
		if d > 0 {
			h.httpClient.Timeout = d
		}
	}
}

// NewHTTPClient creates a client for baseURL authenticated with token.
func NewHTTPClient(baseURL, token string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) endpoint(action string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse base url")
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AppendLog sends one entry. A non-2xx status yields *HTTPError; a 2xx reply
// is decoded into Response whether or not it reports ok.
func (c *HTTPClient) AppendLog(ctx context.Context, req AppendRequest) (Response, error) {
	var resp Response

	body, err := json.Marshal(req)
	if err != nil {
		return resp, errors.Wrap(err, "encode request")
	}

	endpoint, err := c.endpoint("log_append")
	if err != nil {
		return resp, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return resp, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	err = c.do(httpReq, &resp)
	return resp, err
}

// Health probes the endpoint.
func (c *HTTPClient) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus

	endpoint, err := c.endpoint("health")
	if err != nil {
		return status, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return status, errors.Wrap(err, "build request")
	}

	err = c.do(httpReq, &status)
	return status, err
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// Close implements Transport. The HTTP client holds no connection state
// worth releasing.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
