package records

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matryer/try"
	"github.com/rs/zerolog"

	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/logging"
)

// Service is the name used in API errors raised by Client.
const Service = "records-api"

// Resource paths under the API base URL.
const (
	FlatsPath  = "/flats"
	HousesPath = "/houses"
)

// Fetcher loads the authoritative state of a record.
type Fetcher interface {
	FetchFlat(ctx context.Context, id int64) (*Flat, error)
	FetchHouse(ctx context.Context, id int64) (*House, error)
}

// Client fetches records over the backend's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
	retries    int
	backoff    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *zerolog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetries sets how many times a failed request is retried. Only
// transport errors and 5xx responses are retried.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the base delay between retries. The delay grows
// linearly with the attempt number.
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = d
	}
}

// NewClient returns a Client for the API rooted at baseURL,
// e.g. http://localhost:28600/is-lab1/api.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		logger:     logging.Default(),
		retries:    constants.MaxRetries,
		backoff:    constants.RetryBackoff,
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

// FetchFlat loads a flat by id.
func (c *Client) FetchFlat(ctx context.Context, id int64) (*Flat, error) {
	var flat Flat
	if err := c.get(ctx, FlatsPath, "flat", id, &flat); err != nil {
		return nil, err
	}
	return &flat, nil
}

// FetchHouse loads a house by id.
func (c *Client) FetchHouse(ctx context.Context, id int64) (*House, error) {
	var house House
	if err := c.get(ctx, HousesPath, "house", id, &house); err != nil {
		return nil, err
	}
	return &house, nil
}

// errorBody is the backend's error response.
type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) get(ctx context.Context, path, resource string, id int64, out any) error {
	endpoint := c.baseURL + path + "/" + strconv.FormatInt(id, 10)
	logger := c.logger.With().Str("endpoint", endpoint).Logger()

	var body []byte
	// try keeps calling while the func returns true and a non-nil error.
	// attempt starts at 1.
	err := try.Do(func(attempt int) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}

		var err error
		body, err = c.do(ctx, endpoint)
		if err == nil {
			return false, nil
		}
		if errors.IsNotFound(err) {
			return false, errors.NewNotFoundError(resource, strconv.FormatInt(id, 10))
		}
		retry := attempt <= c.retries && errors.IsTemporary(err)
		if retry {
			logger.Debug().Err(err).Int("attempt", attempt).Msg("Retrying records request")
			if !c.sleep(ctx, time.Duration(attempt)*c.backoff) {
				return false, fmt.Errorf("%w: %w", errors.ErrCanceled, ctx.Err())
			}
		}
		return retry, err
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.WrapResource("decode", resource, strconv.FormatInt(id, 10), err)
	}
	return nil
}

// do performs a single GET and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewConfigError("api_url", "invalid records endpoint", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapTransport("get", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransport("read", endpoint, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.ErrNotFound
	}

	apiErr := errors.NewAPIError(Service, resp.StatusCode, http.StatusText(resp.StatusCode))
	apiErr.Endpoint = endpoint
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
		apiErr.Message = eb.Message
	}
	return nil, apiErr
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*errors.APIError, bool) {
	var apiErr *errors.APIError
	ok := stderrors.As(err, &apiErr)
	return apiErr, ok
}
