// Package ioclient contains web service clients of data providers.
package ioclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gnames/gnfmt"
	gnsos "github.com/gnames/gnsos/pkg"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// HTTPClient sends GET requests to a provider web service. Requests are
// paced by a rate limiter, retried on 429 and 5xx responses and go
// through a circuit breaker, so a failing service is not hammered by
// retries of every page.
type HTTPClient struct {
	baseURL    string
	http       *http.Client
	dl         *http.Client
	cb         *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	enc        gnfmt.GNjson
}

// ClientOption changes settings of HTTPClient.
type ClientOption func(*HTTPClient)

// OptInterval sets the minimal interval between requests. Zero
// interval disables pacing.
func OptInterval(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// OptRetries sets the number of retries and the first backoff delay,
// following delays double.
func OptRetries(n int, delay time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
		c.retryDelay = delay
	}
}

// OptTimeout sets the timeout of one request.
func OptTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// OptDownloadTimeout sets the timeout of one file download.
func OptDownloadTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.dl.Timeout = d
	}
}

// NewHTTPClient creates a client of the service at baseURL. The name is
// used in logs and by the circuit breaker.
func NewHTTPClient(name, baseURL string, opts ...ClientOption) *HTTPClient {
	res := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 5 * time.Minute},
		dl:         &http.Client{Timeout: 6 * time.Hour},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: 3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(res)
	}

	res.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"service", name, "from", from.String(), "to", to.String())
		},
	})
	return res
}

// URL joins the base URL, path and query.
func (c *HTTPClient) URL(path string, query url.Values) string {
	res := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		res += "?" + query.Encode()
	}
	return res
}

// GetJSON decodes the JSON response of path into target.
func (c *HTTPClient) GetJSON(
	ctx context.Context,
	path string,
	query url.Values,
	target any,
) error {
	u := c.URL(path, query)
	body, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	if err = c.enc.Decode(body, target); err != nil {
		return SourceError(u, fmt.Errorf("cannot decode response: %w", err))
	}
	return nil
}

// Download streams the body of an absolute URL into the file dst. Data
// goes to dst.part first and is renamed to dst when complete, so dst is
// never a partial file. It returns the number of written bytes.
func (c *HTTPClient) Download(
	ctx context.Context,
	rawURL, dst string,
) (int64, error) {
	var n int64
	err := c.retry(ctx, rawURL, func() error {
		var err error
		n, err = c.download(ctx, rawURL, dst)
		return err
	})
	return n, err
}

// retryableError marks responses worth another attempt.
type retryableError struct {
	status int
}

func (e retryableError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.status)
}

func (c *HTTPClient) get(ctx context.Context, u string) ([]byte, error) {
	var res []byte
	err := c.retry(ctx, u, func() error {
		body, err := c.cb.Execute(func() (any, error) {
			return c.do(ctx, u)
		})
		if err == nil {
			res = body.([]byte)
		}
		return err
	})
	return res, err
}

// retry calls fn until it succeeds, fails with an error that is not
// worth another attempt, or runs out of retries. Delays between attempts
// double.
func (c *HTTPClient) retry(ctx context.Context, u string, fn func() error) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.retryDelay * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		var re retryableError
		if !errors.As(err, &re) && !isNetworkError(err) {
			break
		}
		slog.Warn("Request failed, retrying", "url", u, "attempt", i+1, "error", err)
	}
	return SourceError(u, lastErr)
}

func (c *HTTPClient) download(ctx context.Context, u, dst string) (int64, error) {
	req, err := c.newRequest(ctx, u)
	if err != nil {
		return 0, err
	}
	resp, err := c.dl.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err = checkStatus(resp.StatusCode); err != nil {
		return 0, err
	}

	part := dst + ".part"
	f, err := os.Create(part)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(part)
		return n, err
	}
	return n, os.Rename(part, dst)
}

func (c *HTTPClient) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "gnsos/"+gnsos.Version)
	return req, nil
}

func checkStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests, status >= 500:
		return retryableError{status: status}
	default:
		return fmt.Errorf("unexpected status code: %d", status)
	}
}

func (c *HTTPClient) do(ctx context.Context, u string) ([]byte, error) {
	req, err := c.newRequest(ctx, u)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err = checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func isNetworkError(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue) && !errors.Is(err, context.Canceled)
}
