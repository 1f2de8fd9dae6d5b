package supabase

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

// Client is the main Supabase client. It is constructed once at startup and
// injected into everything that talks to the hosted backend.
type Client struct {
	config Config

	// Derived values
	baseURL string
	restURL string
	authURL string

	httpClient *http.Client

	// Sub-clients
	auth     *AuthClient
	database *DatabaseClient
}

// New creates a new Supabase client.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("anon key is required")
	}

	baseURL := strings.TrimRight(cfg.ProjectURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := http.DefaultTransport
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		cloned := base.Clone()
		if cloned.TLSClientConfig != nil {
			cloned.TLSClientConfig = cloned.TLSClientConfig.Clone()
			if cloned.TLSClientConfig.MinVersion < tls.VersionTLS12 {
				cloned.TLSClientConfig.MinVersion = tls.VersionTLS12
			}
		} else {
			cloned.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		transport = cloned
	}

	c := &Client{
		config:  cfg,
		baseURL: baseURL,
		restURL: baseURL + "/rest/v1",
		authURL: baseURL + "/auth/v1",
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}

	c.auth = &AuthClient{client: c}
	c.database = &DatabaseClient{client: c}

	return c, nil
}

// Auth returns the auth client.
func (c *Client) Auth() *AuthClient {
	return c.auth
}

// Database returns the database client.
func (c *Client) Database() *DatabaseClient {
	return c.database
}

// =============================================================================
// Internal HTTP Methods
// =============================================================================

// request performs an HTTP request authenticated with the anon key.
func (c *Client) request(ctx context.Context, method, urlPath string, body []byte, headers map[string]string) ([]byte, int, error) {
	return c.requestWithKey(ctx, method, urlPath, body, headers, c.config.AnonKey)
}

// requestWithServiceKey performs an HTTP request with the service role key.
func (c *Client) requestWithServiceKey(ctx context.Context, method, urlPath string, body []byte, headers map[string]string) ([]byte, int, error) {
	if c.config.ServiceKey == "" {
		return nil, 0, fmt.Errorf("service key not configured")
	}
	return c.requestWithKey(ctx, method, urlPath, body, headers, c.config.ServiceKey)
}

// requestWithKey performs an HTTP request with a specific API key.
func (c *Client) requestWithKey(ctx context.Context, method, urlPath string, body []byte, headers map[string]string, key string) ([]byte, int, error) {
	reqHeaders := c.buildHeaders(headers)
	reqHeaders["apikey"] = key
	if _, ok := reqHeaders["Authorization"]; !ok {
		reqHeaders["Authorization"] = "Bearer " + key
	}
	return c.do(ctx, method, urlPath, body, reqHeaders)
}

// requestWithToken performs an HTTP request with a user's access token.
// The anon key still identifies the project; the token carries identity.
func (c *Client) requestWithToken(ctx context.Context, method, urlPath string, body []byte, headers map[string]string, accessToken string) ([]byte, int, error) {
	reqHeaders := c.buildHeaders(headers)
	reqHeaders["apikey"] = c.config.AnonKey
	reqHeaders["Authorization"] = "Bearer " + accessToken
	return c.do(ctx, method, urlPath, body, reqHeaders)
}

func (c *Client) do(ctx context.Context, method, urlPath string, body []byte, headers map[string]string) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlPath, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

// buildHeaders builds request headers.
func (c *Client) buildHeaders(extra map[string]string) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}

	for k, v := range c.config.DefaultHeaders {
		headers[k] = v
	}

	for k, v := range extra {
		headers[k] = v
	}

	return headers
}

// parseError parses an error response body.
func parseError(body []byte, statusCode int) error {
	var errResp struct {
		Code             string `json:"code"`
		Message          string `json:"message"`
		Details          string `json:"details"`
		Hint             string `json:"hint"`
		ErrorField       string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		msg := string(body)
		if len(msg) > maxErrorBodyBytes {
			msg = msg[:maxErrorBodyBytes] + "...(truncated)"
		}
		return &Error{
			Code:       "unknown",
			Message:    strings.TrimSpace(msg),
			StatusCode: statusCode,
		}
	}

	msg := errResp.Message
	if msg == "" {
		msg = errResp.Msg
	}
	// GoTrue sends a machine code in "error" and the human message in
	// "error_description", so the description wins when both are set.
	if msg == "" {
		msg = errResp.ErrorDescription
	}
	if msg == "" {
		msg = errResp.ErrorField
	}

	return &Error{
		Code:       errResp.Code,
		Message:    msg,
		Details:    errResp.Details,
		Hint:       errResp.Hint,
		StatusCode: statusCode,
	}
}
