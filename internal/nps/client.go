package nps

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/sling"
)

const (
	DefaultBaseURL = "https://developer.nps.gov/api/v1"
	UserAgent      = "parkfinder/1.0 (github.com/pfrederiksen/parkfinder)"
	Timeout        = 30 * time.Second

	parksPath       = "parks"
	campgroundsPath = "campgrounds"
)

// Client is a client for the NPS API
type Client struct {
	apiKey  string
	baseURL string
	base    *sling.Sling
}

// Option configures a Client
type Option func(*clientConfig)

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at another API root (tests, proxies)
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new NPS API client
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: Timeout,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// sling resolves request paths relative to the base, so it must end in a slash
	baseURL := strings.TrimRight(cfg.baseURL, "/") + "/"

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		base: sling.New().
			Client(cfg.httpClient).
			Base(baseURL).
			Set("User-Agent", UserAgent).
			Set("Accept", "application/json"),
	}
}

// BaseURL returns the API root the client sends requests to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// searchParams is encoded into the query string of every request
type searchParams struct {
	StateCode string `url:"stateCode"`
	APIKey    string `url:"api_key"`
}

// FetchParks fetches park records for a state code.
// The returned slice is never nil on success. A 2xx body without a "data"
// array, including an empty body or "data": null, is a fetch failure.
func (c *Client) FetchParks(ctx context.Context, region string) ([]Park, error) {
	var result parksResponse
	if err := c.get(ctx, parksPath, region, &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, &transportError{endpoint: parksPath, op: "parsing response", err: errNoData}
	}
	if *result.Data == nil {
		return []Park{}, nil
	}
	return *result.Data, nil
}

// FetchCampgrounds fetches campground records for a state code.
// The returned slice is never nil on success.
func (c *Client) FetchCampgrounds(ctx context.Context, region string) ([]Campground, error) {
	var result campgroundsResponse
	if err := c.get(ctx, campgroundsPath, region, &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, &transportError{endpoint: campgroundsPath, op: "parsing response", err: errNoData}
	}
	if *result.Data == nil {
		return []Campground{}, nil
	}
	return *result.Data, nil
}

// get issues one GET request against endpoint and decodes a 2xx body into v
func (c *Client) get(ctx context.Context, endpoint, region string, v interface{}) error {
	req, err := c.base.New().
		Get(endpoint).
		QueryStruct(&searchParams{StateCode: region, APIKey: c.apiKey}).
		Request()
	if err != nil {
		return &transportError{endpoint: endpoint, op: "creating request", err: stripURL(err)}
	}

	// Error bodies are ignored; any non-2xx status is a failure
	resp, err := c.base.Do(req.WithContext(ctx), v, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
			return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		}
		op := "making request"
		if resp != nil {
			op = "parsing response"
		}
		return &transportError{endpoint: endpoint, op: op, err: stripURL(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	return nil
}
