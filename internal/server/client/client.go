// Package client talks to the development push server's REST endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/homewire/internal/server/handlers"
	"github.com/agentstation/homewire/internal/server/response"
	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/errors"
)

// Service is the name used in API errors raised by Client.
const Service = "push-server"

// Client calls a development push server.
type Client struct {
	baseURL    string
	prefix     string
	apiKey     string
	authHeader string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the key sent with publish requests.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithAuthHeader sets the header the API key is sent in.
func WithAuthHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.authHeader = name
		}
	}
}

// WithPathPrefix sets the API path prefix.
func WithPathPrefix(prefix string) Option {
	return func(c *Client) {
		c.prefix = strings.TrimRight(prefix, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     "/api/v1",
		authHeader: "X-API-Key",
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish posts one change frame and returns the server's receipt.
func (c *Client) Publish(ctx context.Context, frame []byte) (*handlers.PublishResult, error) {
	var result handlers.PublishResult
	if err := c.call(ctx, http.MethodPost, "/events", frame, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats returns the server's connection counts.
func (c *Client) Stats(ctx context.Context) (*handlers.Stats, error) {
	var stats handlers.Stats
	if err := c.call(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// call sends one request and decodes the data field of the reply into out.
func (c *Client) call(ctx context.Context, method, path string, body []byte, out any) error {
	endpoint := c.baseURL + c.prefix + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.NewConfigError("server_url", "invalid server endpoint", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(c.authHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapTransport(strings.ToLower(method), endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapTransport("read", endpoint, err)
	}

	envelope := response.Response{Data: out}
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errors.NewAPIError(Service, resp.StatusCode, http.StatusText(resp.StatusCode))
		apiErr.Endpoint = endpoint
		if decodeErr == nil && envelope.Error != nil {
			apiErr.Message = envelope.Error.Message
			if envelope.Error.Details != "" {
				apiErr.Message += ": " + envelope.Error.Details
			}
		}
		return apiErr
	}
	if decodeErr != nil {
		return errors.WrapResource("decode", "response", endpoint, decodeErr)
	}
	return nil
}
