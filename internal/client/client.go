package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/apled/internal/logging"
	"github.com/muurk/apled/internal/render"
	"github.com/muurk/apled/internal/version"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// maxBodySize bounds how much of a response we read.
	maxBodySize = 64 << 10
)

// stateMarker extracts the state label from the HTML pages.
var stateMarker = regexp.MustCompile(`<strong id="state">(ON|OFF)</strong>`)

// Client is an HTTP client for one apled device.
type Client struct {
	// BaseURL is the device root, e.g. "http://192.168.4.1"
	BaseURL string

	HTTPClient *http.Client

	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// New creates a client for baseURL. A bare host or host:port is accepted.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		BaseURL:       strings.TrimSuffix(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// NewForHost creates a client for ip and port.
func NewForHost(ip string, port int) *Client {
	return New("http://" + net.JoinHostPort(ip, strconv.Itoa(port)))
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Status fetches the status document.
func (c *Client) Status(ctx context.Context) (*render.StatusDocument, error) {
	body, err := c.getWithRetry(ctx, "/status")
	if err != nil {
		return nil, err
	}

	var doc render.StatusDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, NewParseError("failed to parse status document", err)
	}
	return &doc, nil
}

// Home fetches the home page and reports the state it shows.
func (c *Client) Home(ctx context.Context) (bool, error) {
	body, err := c.getWithRetry(ctx, "/")
	if err != nil {
		return false, err
	}
	return parseState(body)
}

// Engage switches the output on and returns the confirmed state.
func (c *Client) Engage(ctx context.Context) (bool, error) {
	body, err := c.getWithRetry(ctx, "/ledon")
	if err != nil {
		return false, err
	}
	return parseState(body)
}

// Disengage switches the output off and returns the confirmed state.
func (c *Client) Disengage(ctx context.Context) (bool, error) {
	body, err := c.getWithRetry(ctx, "/ledoff")
	if err != nil {
		return false, err
	}
	return parseState(body)
}

// Toggle flips the output and returns the new state. It is never retried.
func (c *Client) Toggle(ctx context.Context) (bool, error) {
	body, err := c.get(ctx, "/ledtoggle")
	if err != nil {
		return false, err
	}
	return parseState(body)
}

func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return nil, NewNetworkError("request cancelled", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		body, err := c.get(ctx, path)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, NewNetworkError("failed to create request", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("GET %s failed", path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("GET %s returned status %d", path, resp.StatusCode))
	}
	return body, nil
}

func parseState(body []byte) (bool, error) {
	m := stateMarker.FindSubmatch(body)
	if m == nil {
		return false, NewParseError("response carries no LED state", nil)
	}
	return string(m[1]) == render.StateLabel(true), nil
}
