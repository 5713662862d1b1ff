package radiobrowser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/praeterii/radio/internal/domain"
)

const (
	DefaultBaseURL   = "https://all.api.radio-browser.info"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "praeterii.radio"
	defaultLimit     = 1000
	maxRetries       = 3
	baseRetryDelay   = 500 * time.Millisecond
)

// Client implements domain.StationDirectory against the radio-browser API
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a new radio-browser API client
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryDelay: baseRetryDelay,
		logger:     logger,
	}
}

// doRequest performs a GET against the directory and returns the raw body.
// 5xx responses are retried with exponential backoff; every failure is
// wrapped in domain.ErrDirectoryFailure.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDirectoryFailure, ctx.Err())
		}

		// Wait before retry (exponential backoff)
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", domain.ErrDirectoryFailure, ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrDirectoryFailure, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		c.logger.Debug("directory request", "url", reqURL, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("directory request failed", "error", err, "url", reqURL)
			return nil, fmt.Errorf("%w: %w", domain.ErrDirectoryFailure, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrDirectoryFailure, err)
		}

		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			lastErr = fmt.Errorf("%w: server error: %d", domain.ErrDirectoryFailure, resp.StatusCode)
			c.logger.Warn("directory server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			c.logger.Error("directory request error", "status", resp.StatusCode, "body", string(body))
			return nil, fmt.Errorf("%w: unexpected status code: %d", domain.ErrDirectoryFailure, resp.StatusCode)
		}

		return body, nil
	}

	c.logger.Error("directory request failed after retries", "error", lastErr, "url", reqURL)
	return nil, lastErr
}

// getJSON performs the request and decodes the body into dest
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		c.logger.Error("failed to parse directory response", "error", err, "path", path)
		return fmt.Errorf("%w: failed to parse response: %w", domain.ErrDirectoryFailure, err)
	}
	return nil
}

// ListCountries returns all countries known to the directory
func (c *Client) ListCountries(ctx context.Context, order domain.StationOrder) ([]domain.Country, error) {
	query := url.Values{}
	if order != "" {
		query.Set("order", string(order))
	}

	var dtos []CountryDTO
	if err := c.getJSON(ctx, "/json/countries", query, &dtos); err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}

	countries := MapCountries(dtos)
	c.logger.Info("loaded countries", "count", len(countries))
	return countries, nil
}

// ListStationsByCountry returns stations for an exact country code.
// Stations with an insecure stream URL are dropped regardless of what the
// server returned, so the player is never handed a plain http stream.
func (c *Client) ListStationsByCountry(ctx context.Context, q domain.StationQuery) ([]domain.Station, error) {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Order == "" {
		q.Order = domain.OrderName
	}

	query := url.Values{}
	query.Set("offset", strconv.Itoa(q.Offset))
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("order", string(q.Order))
	query.Set("reverse", strconv.FormatBool(q.Reverse))
	if q.HideBroken {
		query.Set("hidebroken", "true")
	}

	path := "/json/stations/bycountrycodeexact/" + url.PathEscape(q.CountryCode)

	var dtos []StationDTO
	if err := c.getJSON(ctx, path, query, &dtos); err != nil {
		return nil, fmt.Errorf("list stations for %s: %w", q.CountryCode, err)
	}

	all := MapStations(dtos)
	stations := secureOnly(all)
	c.logger.Info("loaded stations",
		"countryCode", q.CountryCode,
		"count", len(stations),
		"droppedInsecure", len(all)-len(stations),
	)
	return stations, nil
}

// SearchStationsByName returns stations whose name matches text
func (c *Client) SearchStationsByName(ctx context.Context, text string, offset, limit int) ([]domain.Station, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var dtos []StationDTO
	if err := c.getJSON(ctx, "/json/stations/byname/"+url.PathEscape(text), query, &dtos); err != nil {
		return nil, fmt.Errorf("search stations %q: %w", text, err)
	}

	stations := MapStations(dtos)
	c.logger.Info("searched stations", "query", text, "count", len(stations))
	return stations, nil
}

// RegisterClick records a play of the station for directory statistics
func (c *Client) RegisterClick(ctx context.Context, stationID string) (*domain.ClickResult, error) {
	if _, err := uuid.Parse(stationID); err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStationID, stationID)
	}

	var resp ClickResponse
	if err := c.getJSON(ctx, "/json/url/"+url.PathEscape(stationID), nil, &resp); err != nil {
		return nil, fmt.Errorf("register click for %s: %w", stationID, err)
	}

	return MapClickResult(resp), nil
}
