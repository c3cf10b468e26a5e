package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/peergap/pkg/config"
	"github.com/wonny/peergap/pkg/httputil"
	"github.com/wonny/peergap/pkg/logger"
	"github.com/wonny/peergap/pkg/redis"
)

// DefaultBaseURL is the FMP API host
const DefaultBaseURL = "https://financialmodelingprep.com"

// APIError is a provider-level failure
// FMP answers some failures with HTTP 200 and an "Error Message" body.
type APIError struct {
	Endpoint   string
	StatusCode int // 0 when the failure was in the body
	Message    string
	NoData     bool
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fmp %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fmp %s: %s", e.Endpoint, e.Message)
}

// IsNoData reports whether err is an empty provider response
func IsNoData(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NoData
}

// Client handles communication with the Financial Modeling Prep API
// ⭐ SSOT: FMP API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a new FMP client on top of a shared HTTP client
func NewClient(httpClient *httputil.Client, apiKey, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("fmp"),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewFromConfig wires timeout, retry and rate limits from the process config
// limiter may be nil (Redis disabled); the local token bucket always applies.
func NewFromConfig(cfg *config.Config, limiter *redis.RateLimiter, log *logger.Logger) *Client {
	hc := httputil.NewWithTimeout(cfg, log, cfg.FMP.Timeout).
		WithLimiter(cfg.FMP.RateLimit)
	if cfg.FMP.MaxRetries > 0 {
		hc = hc.WithRetry(cfg.FMP.MaxRetries, httputil.DefaultInitialDelay)
	}
	if limiter != nil {
		hc = hc.WithRateLimiter(limiter, redis.FMPLimit(cfg.FMP.RateLimit))
	}
	return NewClient(hc, cfg.FMP.APIKey, cfg.FMP.BaseURL, log)
}

// getList fetches a JSON array endpoint into dest
// An "Error Message" body or an empty array is an *APIError.
func (c *Client) getList(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	var raw json.RawMessage
	if err := c.httpClient.GetJSON(ctx, fullURL, &raw); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			msg := statusErr.Body
			var body errorResponse
			if json.Unmarshal([]byte(statusErr.Body), &body) == nil && body.ErrorMessage != "" {
				msg = body.ErrorMessage
			}
			return &APIError{Endpoint: endpoint, StatusCode: statusErr.StatusCode, Message: msg}
		}
		return fmt.Errorf("fmp %s: %w", endpoint, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var body errorResponse
		if err := json.Unmarshal(trimmed, &body); err == nil && body.ErrorMessage != "" {
			return &APIError{Endpoint: endpoint, Message: body.ErrorMessage}
		}
		return &APIError{Endpoint: endpoint, Message: "unexpected object response"}
	}

	if err := json.Unmarshal(trimmed, dest); err != nil {
		return fmt.Errorf("fmp %s: decode: %w", endpoint, err)
	}
	if string(trimmed) == "[]" || string(trimmed) == "null" {
		return &APIError{Endpoint: endpoint, Message: "no data", NoData: true}
	}
	return nil
}
