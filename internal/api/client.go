package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the myquran.com v1 API.
	DefaultBaseURL = "https://api.myquran.com/v1"
	// DefaultTimeout bounds every request; the API is called at most twice per run.
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrAPI reports a transport failure, a non-200 response or an undecodable body.
	ErrAPI = errors.New("api request failed")
	// ErrNotFound is returned by FindCity when the API reports no match.
	ErrNotFound = errors.New("city not found")
	// ErrNoData is returned by FetchMonthlySchedule when the API has no schedule.
	ErrNoData = errors.New("schedule not found")
)

// Client communicates with the myquran.com prayer schedule API.
type Client struct {
	httpClient *http.Client
	userAgent  string
	// BaseURL is the API base URL. Defaults to DefaultBaseURL.
	// Exported for testing with httptest.
	BaseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithBaseURL overrides the API base URL. An empty string keeps the default.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.BaseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewClient creates a new API client with sensible defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: "jadwal-waybar",
		BaseURL:   DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindCity searches cities by name. The name is trimmed and lower-cased
// before the request, as the search endpoint is case sensitive.
func (c *Client) FindCity(ctx context.Context, name string) ([]City, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	endpoint := fmt.Sprintf("%s/sholat/kota/cari/%s", c.BaseURL, url.PathEscape(name))

	env, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	var cities []City
	if err := json.Unmarshal(env.Data, &cities); err != nil {
		return nil, fmt.Errorf("%w: failed to decode cities: %v", ErrAPI, err)
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return cities, nil
}

// FetchMonthlySchedule fetches the schedule of every day of the given month.
func (c *Client) FetchMonthlySchedule(ctx context.Context, cityID CityID, year int, month time.Month) (*MonthlySchedule, error) {
	endpoint := fmt.Sprintf("%s/sholat/jadwal/%d/%d/%d", c.BaseURL, cityID, year, int(month))

	env, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: city %d, %d-%02d", ErrNoData, cityID, year, int(month))
	}

	m, err := DecodeMonthlySchedule(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	return m, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrAPI, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: failed to decode API response: %v", ErrAPI, err)
	}

	return &env, nil
}
