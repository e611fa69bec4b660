package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var ErrUnexpectedStatus = errors.New("unexpected dataset response status")

// maxBodyBytes caps the response size; the published dataset is ~250 KiB.
const maxBodyBytes = 32 << 20

type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
	Source() string
}

// HTTPLoader fetches the dataset with a single GET. It never retries.
type HTTPLoader struct {
	url       string
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPLoader returns a loader for url. A zero timeout leaves the request
// bounded only by the caller's context.
func NewHTTPLoader(url string, timeout time.Duration, userAgent string, logger *slog.Logger) *HTTPLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPLoader{
		url:       url,
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

func (l *HTTPLoader) Source() string {
	return l.url
}

func (l *HTTPLoader) Load(ctx context.Context) (*Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	l.logger.Debug("fetching dataset", "url", l.url)
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			l.logger.Warn("close dataset response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snip, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, resp.StatusCode, string(snip))
	}

	payload, err := Decode(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	ds := Derive(payload)
	l.logger.Debug("dataset decoded",
		"url", l.url,
		"records", ds.Len(),
		"base_temperature", ds.BaseTemperature,
	)
	return ds, nil
}
