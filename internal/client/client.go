// Package client provides an HTTP client for the Story Spoiler REST API.
//
// A Client holds the base URL and, after Authenticate, a bearer token that is
// attached to every later request. Do sends raw requests and hands back the
// status and body untouched, so negative cases can be asserted; the typed
// story methods in stories.go turn non-success statuses into errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// AuthPath is the login endpoint.
const AuthPath = "/api/User/Authentication"

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

// ErrNoAccessToken is returned by Authenticate when the login response
// carries no usable accessToken.
var ErrNoAccessToken = errors.New("login response has no accessToken")

// Client talks to a Story Spoiler deployment.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithToken preloads a bearer token, skipping Authenticate.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the deployment root the client was created for.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the cached bearer token, or "" before login.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the cached bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Authenticate logs in with username/password, caches the returned
// accessToken on the client and returns it.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, AuthPath, credentials{Username: username, Password: password}, nil, false)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authenticate: %w", resp.apiError(http.MethodPost, AuthPath))
	}

	var lr loginResponse
	if err := json.Unmarshal(resp.Body, &lr); err != nil {
		return "", fmt.Errorf("authenticate: decoding response: %w", err)
	}
	if lr.AccessToken == "" {
		return "", fmt.Errorf("authenticate: %w", ErrNoAccessToken)
	}

	c.SetToken(lr.AccessToken)
	return lr.AccessToken, nil
}

// Do sends an authorized request and returns the buffered response whatever
// its status. body may be nil, a string, a []byte, a json.RawMessage, or any
// value that marshals to JSON. An error is returned only when no response
// was received.
func (c *Client) Do(ctx context.Context, method, path string, body any, headers map[string]string) (*Response, error) {
	return c.send(ctx, method, path, body, headers, true)
}

func (c *Client) send(ctx context.Context, method, path string, body any, headers map[string]string, authorize bool) (*Response, error) {
	reader, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorize {
		if tok := c.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response body: %w", method, path, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Duration:   time.Since(start),
	}, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// JSON unmarshals the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("response body is not valid JSON: %w", err)
	}
	return nil
}

// Message returns the "msg" field of a JSON object body, or "".
func (r *Response) Message() string {
	var m struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(r.Body, &m) != nil {
		return ""
	}
	return m.Msg
}

func (r *Response) apiError(method, path string) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: r.StatusCode,
		Msg:        r.Message(),
		Body:       strings.TrimSpace(string(r.Body)),
	}
}
