// Package scholar scrapes a public Google Scholar citation profile: a
// retrying fetcher, a row extractor and a paginator that drives them.
package scholar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matsen/homepage/internal/logging"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 9999 * time.Millisecond

	// UserAgent is sent on every request. The listing endpoint serves the
	// plain table markup to old browsers.
	UserAgent = "Mozilla/4.0 (compatible; MSIE 6.0; Windows NT 5.1)"

	// Cache-busting query parameters appended to every attempt.
	ParamRandom    = "random_bypass"
	ParamTimestamp = "_"
)

// RetryPolicy bounds how often and how quickly a failed fetch is repeated.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts including the first
	BaseBackoff time.Duration // Delay after the first failure; doubles each time
	MaxBackoff  time.Duration // Upper bound for any single delay
}

// DefaultRetryPolicy is five attempts with 500ms doubling backoff capped at 30s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseBackoff: 500 * time.Millisecond,
	MaxBackoff:  30 * time.Second,
}

// Backoff returns the delay before the attempt following failed attempt
// number attempt (1-based). A positive retryAfter overrides the computed
// delay; both are bounded by MaxBackoff.
func (p RetryPolicy) Backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, p.MaxBackoff)
	}
	delay := p.BaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return min(delay, p.MaxBackoff)
}

// Client fetches listing pages with retry.
type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
	log        logrus.FieldLogger
	random     func() float64
	now        func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		c.policy = p
	}
}

// WithLogger sets the logger used for per-attempt detail.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.log = logging.OrDiscard(l)
	}
}

// NewClient creates a listing client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		policy:     DefaultRetryPolicy,
		log:        logging.Discard(),
		random:     rand.Float64,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch GETs a listing URL and returns the response body. Retryable
// failures are repeated with backoff until the policy is exhausted.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		body, err := c.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if !IsRetryable(err) {
			return "", err
		}
		lastErr = err
		if attempt == c.policy.MaxAttempts {
			break
		}

		var retryAfter time.Duration
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			retryAfter = httpErr.RetryAfter
		}
		delay := c.policy.Backoff(attempt, retryAfter)
		c.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
			"error":   err,
		}).Debug("retrying listing fetch")

		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.policy.MaxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (string, error) {
	target, err := c.cacheBust(rawURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			RetryAfter: parseRetryAfter(resp),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	return string(body), nil
}

// cacheBust appends a random value and the current time in milliseconds.
func (c *Client) cacheBust(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing listing URL: %w", err)
	}
	q := u.Query()
	q.Set(ParamRandom, strconv.FormatFloat(c.random(), 'f', -1, 64))
	q.Set(ParamTimestamp, strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseRetryAfter reads a delay-seconds Retry-After header on 429 and 503.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
