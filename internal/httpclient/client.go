// Package httpclient wraps outbound JSON calls with the shared retry policy,
// a circuit breaker and a request-rate limiter.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/metrics"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/retry"
)

// Request describes one outbound call.
type Request struct {
	Method string
	URL    string
	Query  map[string]string
	Header map[string]string
}

// FullURL renders the URL with its encoded query string.
func (r Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	values := url.Values{}
	for k, v := range r.Query {
		values.Set(k, v)
	}
	return r.URL + "?" + values.Encode()
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Config controls transport behavior.
type Config struct {
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	// BreakerFailures is the consecutive failure count that opens the
	// breaker; zero disables it.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithSleeper replaces the wait between attempts.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Client) { c.sleeper = s }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.SetTransport(rt) }
}

// Client performs JSON GETs with retry.
type Client struct {
	http    *resty.Client
	policy  retry.Policy
	sleeper retry.Sleeper
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// New builds a Client.
func New(cfg Config, policy retry.Policy, logger *zap.Logger, opts ...Option) *Client {
	logger = logging.OrNop(logger)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.RequestsPerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
		rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	c := &Client{
		http:    rc,
		policy:  policy,
		sleeper: retry.TimerSleeper{},
		logger:  logger,
	}
	if cfg.BreakerFailures > 0 {
		c.breaker = newBreaker(cfg, logger)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(cfg Config, logger *zap.Logger) *gobreaker.CircuitBreaker[[]byte] {
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	threshold := cfg.BreakerFailures
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "upstream",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Call executes req until it succeeds or the retry policy gives up, returning
// the response body. Failures are reported as *f1.APIError.
func (c *Client) Call(ctx context.Context, req Request) ([]byte, error) {
	target := req.FullURL()
	var body []byte
	attempts, err := c.policy.Do(ctx, c.sleeper, func(ctx context.Context, attempt int) error {
		b, err := c.attempt(ctx, req)
		if err != nil {
			if c.policy.ShouldRetry(err, attempt) {
				metrics.ObserveRetry(target)
				c.logger.Warn("upstream attempt failed, retrying",
					zap.String("url", target),
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		metrics.ObserveUpstream(target, "error")
		c.logger.Error("upstream call failed",
			zap.String("url", target),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, &f1.APIError{URL: target, Attempts: attempts, Err: err}
	}
	metrics.ObserveUpstream(target, "ok")
	return body, nil
}

func (c *Client) attempt(ctx context.Context, req Request) ([]byte, error) {
	if c.breaker == nil {
		return c.execute(ctx, req)
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.execute(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, retry.Permanent(err)
	}
	return body, err
}

func (c *Client) execute(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	r := c.http.R().SetContext(ctx)
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if len(req.Header) > 0 {
		r.SetHeaders(req.Header)
	}
	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{Code: resp.StatusCode()}
	}
	return resp.Body(), nil
}
