package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "plannercal/internal/log"
)

// Source represents a single ICS feed source.
type Source struct {
	// Code is the short source tag (e.g. "JLS") used as the activity prefix.
	Code string
	// URL is the ICS endpoint.
	URL string
}

// FetchResult contains the outcome of fetching a single ICS source.
type FetchResult struct {
	Source Source
	Body   []byte
	Status int
}

// FetchError reports a failed retrieval: network error, timeout, or a
// non-success HTTP status. Callers recover by substituting the source's
// static fallback dataset.
type FetchError struct {
	Code   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: http status %d", e.Code, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Code, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves ICS feeds with a bounded per-request timeout and a small
// retry budget. There is no cache layer: every run re-fetches from scratch.
type Fetcher struct {
	client  *http.Client
	retries int
}

// NewFetcher creates a Fetcher. timeout bounds each HTTP attempt; retries is
// the number of additional attempts after a transient failure.
func NewFetcher(timeout time.Duration, retries int) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

// Fetch retrieves one source. Any failure after the retry budget is spent is
// returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, &FetchError{Code: src.Code, Err: errors.New("source URL is empty")}
	}

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return FetchResult{}, &FetchError{Code: src.Code, Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			appLog.Debug("ics fetch retry", "code", src.Code, "attempt", attempt)
		}

		res, err := f.fetchOnce(ctx, src)
		if err == nil {
			return res, nil
		}
		lastErr = err

		// Client errors won't get better on retry.
		var fe *FetchError
		if errors.As(err, &fe) && fe.Status >= 400 && fe.Status < 500 {
			break
		}
	}

	return FetchResult{}, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, src Source) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, &FetchError{Code: src.Code, Err: err}
	}

	appLog.Debug("ics fetch start", "code", src.Code, "url", redactURL(src.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, &FetchError{Code: src.Code, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, &FetchError{Code: src.Code, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, &FetchError{Code: src.Code, Err: err}
	}

	appLog.Info("ics fetch success", "code", src.Code, "url", redactURL(src.URL), "bytes", len(body))

	return FetchResult{Source: src, Body: body, Status: resp.StatusCode}, nil
}

// redactURL hides query strings and paths of an ICS URL for logging.
// Hebcal-style URLs embed opaque tokens in the path.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}

	return u[:j] + redactedSuffix
}
