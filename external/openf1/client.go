package openf1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/mexicorn/podium/internal/platform/logging"
	"github.com/mexicorn/podium/internal/platform/resilience"
	"github.com/mexicorn/podium/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.openf1.org/v1"
	defaultTimeout     = 20 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
	maxResponseBytes   = 6 << 20
	// Total time spent honoring Retry-After headers per request. A provider
	// asking for more than this is treated as unavailable.
	maxRateLimitWait = 2 * time.Minute
)

var errTransient = crerr.New("openf1 transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the OpenF1 REST API. It implements usecase.RaceDataProvider:
// transient upstream failures are retried with exponential backoff, rate
// limiting honors the Retry-After header, and an empty or undecodable 200
// payload is reported as absence rather than an error.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	backoffBase    time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxRetries,
		backoffBase:    backoffBase,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		sleep:          sleepContext,
	}
}

type sessionPayload struct {
	SessionKey  int64     `json:"session_key"`
	SessionName string    `json:"session_name"`
	SessionType string    `json:"session_type"`
	CountryName string    `json:"country_name"`
	DateStart   time.Time `json:"date_start"`
}

type driverPayload struct {
	SessionKey   int64  `json:"session_key"`
	DriverNumber int    `json:"driver_number"`
	FullName     string `json:"full_name"`
	CountryCode  string `json:"country_code"`
	TeamName     string `json:"team_name"`
}

type positionPayload struct {
	SessionKey   int64     `json:"session_key"`
	DriverNumber int       `json:"driver_number"`
	Position     int       `json:"position"`
	Date         time.Time `json:"date"`
}

func (c *Client) FetchSessions(ctx context.Context, year int) ([]usecase.ExternalSession, error) {
	if year <= 0 {
		return nil, fmt.Errorf("year must be greater than zero")
	}

	var payloads []sessionPayload
	ok, err := c.doJSON(ctx, "/sessions", map[string]string{"year": strconv.Itoa(year)}, &payloads)
	if err != nil {
		return nil, fmt.Errorf("fetch sessions year=%d: %w", year, err)
	}
	if !ok {
		return nil, nil
	}
	return mapSessions(payloads), nil
}

func (c *Client) FetchSessionByKey(ctx context.Context, key int64) ([]usecase.ExternalSession, error) {
	if key <= 0 {
		return nil, fmt.Errorf("session key must be greater than zero")
	}

	var payloads []sessionPayload
	ok, err := c.doJSON(ctx, "/sessions", map[string]string{"session_key": strconv.FormatInt(key, 10)}, &payloads)
	if err != nil {
		return nil, fmt.Errorf("fetch session session_key=%d: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return mapSessions(payloads), nil
}

func (c *Client) FetchSessionDrivers(ctx context.Context, sessionKey int64) ([]usecase.ExternalDriver, error) {
	if sessionKey <= 0 {
		return nil, fmt.Errorf("session key must be greater than zero")
	}

	var payloads []driverPayload
	ok, err := c.doJSON(ctx, "/drivers", map[string]string{"session_key": strconv.FormatInt(sessionKey, 10)}, &payloads)
	if err != nil {
		return nil, fmt.Errorf("fetch drivers session_key=%d: %w", sessionKey, err)
	}
	if !ok {
		return nil, nil
	}

	out := make([]usecase.ExternalDriver, 0, len(payloads))
	for _, item := range payloads {
		out = append(out, usecase.ExternalDriver{
			SessionKey:   item.SessionKey,
			DriverNumber: item.DriverNumber,
			FullName:     item.FullName,
			CountryCode:  item.CountryCode,
			TeamName:     item.TeamName,
		})
	}
	return out, nil
}

// FetchDriverAtPosition returns who currently holds the given classification
// position. The endpoint returns the position change history in chronological
// order; the last entry is the final state.
func (c *Client) FetchDriverAtPosition(ctx context.Context, sessionKey int64, position int) (*usecase.ExternalPosition, error) {
	if sessionKey <= 0 {
		return nil, fmt.Errorf("session key must be greater than zero")
	}
	if position <= 0 {
		return nil, fmt.Errorf("position must be greater than zero")
	}

	var payloads []positionPayload
	ok, err := c.doJSON(ctx, "/position", map[string]string{
		"session_key": strconv.FormatInt(sessionKey, 10),
		"position":    strconv.Itoa(position),
	}, &payloads)
	if err != nil {
		return nil, fmt.Errorf("fetch position=%d session_key=%d: %w", position, sessionKey, err)
	}
	if !ok || len(payloads) == 0 {
		return nil, nil
	}

	last := payloads[len(payloads)-1]
	return &usecase.ExternalPosition{
		SessionKey:   last.SessionKey,
		DriverNumber: last.DriverNumber,
		Position:     last.Position,
		Date:         last.Date,
	}, nil
}

// doJSON performs one GET and decodes the payload. The second return is
// false when the provider answered 200 with an empty or undecodable body,
// which OpenF1 uses to mean "no data yet". Concurrent identical requests
// are collapsed into one upstream call.
func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) (bool, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "openf1 circuit breaker rejected request", "state", c.breaker.State())
			return false, fmt.Errorf("%w: race data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return false, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return false, fmt.Errorf("unexpected response payload type %T", out)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return false, nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		c.logger.WarnContext(ctx, "openf1 payload is not valid JSON, treating as absent",
			"url", fullURL, "error", err)
		return false, nil
	}
	return true, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	var rateLimitWaited time.Duration

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusTooManyRequests:
				wait := retryAfterDuration(resp.Header.Get("Retry-After"))
				rateLimitWaited += wait
				if rateLimitWaited > maxRateLimitWait {
					return nil, fmt.Errorf("%w: rate limited beyond %s", errTransient, maxRateLimitWait)
				}
				c.logger.WarnContext(ctx, "openf1 rate limited, honoring Retry-After",
					"wait", wait.String())
				if err := c.sleep(ctx, wait); err != nil {
					return nil, err
				}
				// A rate-limit pause does not consume a retry attempt.
				attempt--
				continue
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := c.backoffBase * (1 << attempt)
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "openf1 request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func mapSessions(payloads []sessionPayload) []usecase.ExternalSession {
	out := make([]usecase.ExternalSession, 0, len(payloads))
	for _, item := range payloads {
		out = append(out, usecase.ExternalSession{
			SessionKey: item.SessionKey,
			Name:       item.SessionName,
			Type:       item.SessionType,
			Country:    item.CountryName,
			DateStart:  item.DateStart,
		})
	}
	return out
}

// retryAfterDuration parses a Retry-After header holding either seconds or
// an HTTP date. Unparseable or absent values fall back to one second.
func retryAfterDuration(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds < 1 {
			return time.Second
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return time.Second
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
