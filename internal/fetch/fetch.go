package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/metrics"
)

var (
	ErrNetwork = errors.New("network error")
	ErrStatus  = errors.New("unexpected status")
)

// StatusError reports a non-200 upstream response. It matches ErrStatus.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d for %s", e.Code, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Config struct {
	Timeout   time.Duration
	UserAgent string
	Referer   string
}

type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	referer    string
	logger     logger.Logger
}

func NewHTTPFetcher(cfg Config, l logger.Logger) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: cfg.UserAgent,
		referer:   cfg.Referer,
		logger:    l,
	}
}

var _ Fetcher = (*HTTPFetcher)(nil)

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Error("failed to create request", "url", url, "error", err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Tile servers such as OpenStreetMap reject requests without these
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	metrics.FetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Warn("failed to fetch tile", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("upstream returned non-200", "url", url, "status", resp.StatusCode)
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Warn("failed to read tile data", "url", url, "error", err)
		return nil, fmt.Errorf("%w: failed to read tile data: %w", ErrNetwork, err)
	}

	f.logger.Debug("fetched tile from upstream", "url", url, "size", len(data))

	return data, nil
}
