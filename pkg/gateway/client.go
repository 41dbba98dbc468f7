// Package gateway issues the authenticated REST calls for projects, tasks,
// collaborators and accounts. Every call returns the server's canonical
// representation; non-2xx responses become coded errors carrying the server
// message.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/logging"
	"github.com/sirupsen/logrus"
)

// TokenSource supplies the current bearer token. An empty token means no session.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// StaticToken is a fixed token, mostly useful in tests.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() string { return string(s) }

// Client calls the backend REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger replaces the component logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the API rooted at baseURL (for example
// "http://localhost:4000/api").
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	transport := &http.Transport{
		DialContext:       (&net.Dialer{KeepAlive: 30 * time.Second}).DialContext,
		DisableKeepAlives: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}
	if tokens == nil {
		tokens = StaticToken("")
	}

	c := &Client{
		// Requests are bounded by the caller's context only.
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		logger:     logging.NewLogger("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HasToken reports whether a session token is currently available.
func (c *Client) HasToken() bool {
	return c.tokens.Token() != ""
}

type messageResponse struct {
	Msg string `json:"msg"`
}

// do performs one request. When auth is true and no token is available it
// returns an AUTH_ABSENT error without touching the network.
func (c *Client) do(ctx context.Context, method, path string, auth bool, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token := c.tokens.Token()
		if token == "" {
			return errors.AuthAbsent()
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRequestFailed, fmt.Sprintf("%s %s failed", method, path)).
			WithDetail("method", method).
			WithDetail("path", path)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg messageResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(data, &msg)
		return errors.RequestFailed(method, path, resp.StatusCode, msg.Msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeRequestFailed, fmt.Sprintf("failed to decode %s %s response", method, path))
	}
	return nil
}
