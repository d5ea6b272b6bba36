package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	requestTimeout = 15 * time.Second
	maxBodySize    = 2 << 20
	userAgent      = "clickoflow/1.0"
)

// ErrRateLimited is returned when a rate feed answers 429.
var ErrRateLimited = errors.New("currency: rate source rate limited")

func fetch(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("currency: creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URL comes from the local user's config
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("currency: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("currency: unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("currency: reading response: %w", err)
	}
	return body, nil
}
