package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"grid-constraints/internal/network"

	"go.uber.org/zap"
)

// FlexBandClient fetches flexibility bands of charging points from a band
// service.
type FlexBandClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Log     *zap.Logger
}

// NewFlexBandClient creates a new band service client.
// If baseURL is empty, defaults to "http://localhost:8090".
func NewFlexBandClient(apiKey, baseURL string, log *zap.Logger) *FlexBandClient {
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FlexBandClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Log: log,
	}
}

// BandServiceError represents an error from the band service
type BandServiceError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *BandServiceError) Error() string {
	return e.Message
}

// FlexibilityBands fetches the bands of all charging points in grid for the
// given use cases.
func (c *FlexBandClient) FlexibilityBands(ctx context.Context, grid string, useCases []string) (*network.FlexibilityBands, error) {
	if grid == "" {
		return nil, fmt.Errorf("grid is required")
	}
	if len(useCases) == 0 {
		return nil, fmt.Errorf("at least one use case is required")
	}

	// /v1/grids/{grid}/flexibility-bands
	u, err := url.Parse(c.BaseURL + "/v1/grids/" + url.PathEscape(grid) + "/flexibility-bands")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("use_cases", strings.Join(useCases, ","))
	u.RawQuery = q.Encode()

	log := c.Log.With(zap.String("grid", grid), zap.Strings("use_cases", useCases))
	log.Debug("band service request", zap.String("path", u.Path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Warn("band service request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("band service response", zap.Int("status", resp.StatusCode), zap.Duration("duration", duration))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &BandServiceError{
			StatusCode: resp.StatusCode,
			Code:       "GRID_NOT_FOUND",
			Message:    fmt.Sprintf("no flexibility bands for grid %q", grid),
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &BandServiceError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: invalid API key",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		log.Warn("band service rate limit", zap.String("retry_after", retryAfter))
		return nil, &BandServiceError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return nil, &BandServiceError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("band service returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var bands network.FlexibilityBands
	if err := json.NewDecoder(resp.Body).Decode(&bands); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	log.Info("received flexibility bands", zap.Int("charging_points", bands.UpperPower.Cols()))
	return &bands, nil
}
