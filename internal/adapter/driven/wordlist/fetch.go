package wordlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/sethvargo/go-retry"
)

// statusError is a non-2xx HTTP response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}

// retryableStatus reports whether a response status is worth another attempt.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// loadURL fetches and reads a remote corpus. Network errors, 429 and 5xx are
// retried with Fibonacci backoff; other statuses fail immediately.
func (l *Loader) loadURL(ctx context.Context, url string) (map[string]struct{}, error) {
	var entries map[string]struct{}

	b := retry.WithMaxRetries(l.maxRetries, retry.NewFibonacci(l.retryBase))
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		got, err := l.fetchOnce(ctx, url)
		if err == nil {
			entries = got
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var se *statusError
		if errors.As(err, &se) && !retryableStatus(se.code) {
			return err
		}
		l.logger.Warn("corpus fetch failed, retrying", "url", url, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, corpusReadError(ctx, url, err)
	}
	return entries, nil
}

func (l *Loader) fetchOnce(ctx context.Context, url string) (map[string]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}

	if resp.Header.Get(httpcache.XFromCache) == "1" {
		l.logger.Debug("corpus served from http cache", "url", url)
	}

	return l.read(ctx, resp.Body)
}
