// Package client talks to the restaurant API over HTTP. It is the
// Finder used by the discovery controller.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/alexivanou/foodmap-api/internal/service"
	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "http://localhost:3000/api"
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = 200 * time.Millisecond
	maxErrorBody       = 512
)

// The client reports the same error classes as the service layer.
var (
	ErrInvalidQuery       = service.ErrInvalidQuery
	ErrServiceUnavailable = service.ErrServiceUnavailable
)

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the restaurant API
type Client struct {
	httpClient  HTTPClient
	baseURL     string
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxAttempts sets how many times a retriable request is tried
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the initial delay between attempts; it doubles each retry
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = delay
	}
}

// WithLogger sets the logger used for retry diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the API rooted at baseURL (e.g. http://host:3000/api)
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error carries the HTTP context of a failed call
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api error (status %d): %v: %s", e.StatusCode, e.Err, e.Message)
	}
	return fmt.Sprintf("api error: %v: %s", e.Err, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FindNear calls GET /restaurants/nearby
func (c *Client) FindNear(ctx context.Context, q model.ProximityQuery) ([]model.Restaurant, error) {
	query := url.Values{}
	query.Set("lng", strconv.FormatFloat(q.ReferencePoint.Lng, 'f', -1, 64))
	query.Set("lat", strconv.FormatFloat(q.ReferencePoint.Lat, 'f', -1, 64))
	query.Set("maxDistance", strconv.FormatFloat(q.MaxDistanceMeters, 'f', -1, 64))
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	return c.getRestaurants(ctx, "/restaurants/nearby", query)
}

// All calls GET /restaurants
func (c *Client) All(ctx context.Context) ([]model.Restaurant, error) {
	return c.getRestaurants(ctx, "/restaurants", nil)
}

// Search calls GET /restaurants/search
func (c *Client) Search(ctx context.Context, term string) ([]model.Restaurant, error) {
	query := url.Values{}
	query.Set("q", term)
	return c.getRestaurants(ctx, "/restaurants/search", query)
}

func (c *Client) getRestaurants(ctx context.Context, path string, query url.Values) ([]model.Restaurant, error) {
	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			c.logger.Warn("Retrying API request",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		restaurants, err := c.doGet(ctx, uri)
		if err == nil {
			return restaurants, nil
		}
		lastErr = err
		if !errors.Is(err, ErrServiceUnavailable) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) doGet(ctx context.Context, uri string) ([]model.Restaurant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Err: ErrServiceUnavailable, Message: err.Error()}
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &Error{
			StatusCode: res.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Err:        classifyStatus(res.StatusCode),
		}
	}

	var restaurants []model.Restaurant
	if err := json.NewDecoder(res.Body).Decode(&restaurants); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return restaurants, nil
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusBadRequest:
		return ErrInvalidQuery
	case code >= 500, code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return ErrServiceUnavailable
	default:
		return fmt.Errorf("unexpected status code %d", code)
	}
}
