package fetcher

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/metrics"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/retry"
)

// StatusError reports a non-2xx page response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Config controls request headers and politeness.
type Config struct {
	UserAgents     []string
	AcceptLanguage string
	MinDelay       time.Duration
	MaxDelay       time.Duration
}

// Option customizes a PageFetcher.
type Option func(*PageFetcher)

// WithSleeper replaces the timer used for retry waits and politeness delays.
func WithSleeper(s retry.Sleeper) Option {
	return func(p *PageFetcher) { p.sleeper = s }
}

// WithRand seeds user-agent rotation and delay jitter.
func WithRand(r *rand.Rand) Option {
	return func(p *PageFetcher) { p.rng = r }
}

// PageFetcher implements f1.PageSource on top of a Backend.
type PageFetcher struct {
	backend Backend
	policy  retry.Policy
	cfg     Config
	sleeper retry.Sleeper
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a PageFetcher.
func New(backend Backend, policy retry.Policy, cfg Config, logger *zap.Logger, opts ...Option) *PageFetcher {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	p := &PageFetcher{
		backend: backend,
		policy:  policy,
		cfg:     cfg,
		sleeper: retry.TimerSleeper{},
		logger:  logging.OrNop(logger),
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Backend reports the name of the configured backend.
func (p *PageFetcher) Backend() string {
	return p.backend.Name()
}

// Fetch returns the HTML of url. After retries are exhausted the error is a
// *f1.DataExtractionError and the page should be treated as absent. Every
// successful fetch is followed by a randomized politeness delay.
func (p *PageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var body []byte
	attempts, err := p.policy.Do(ctx, p.sleeper, func(ctx context.Context, attempt int) error {
		req := Request{URL: url, Header: p.headers()}
		resp, err := p.backend.Fetch(ctx, req)
		if err == nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
			err = &StatusError{URL: url, Code: resp.StatusCode}
		}
		if err != nil {
			p.logger.Warn("page fetch attempt failed",
				zap.String("url", url),
				zap.String("backend", p.backend.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		metrics.ObservePage(p.backend.Name(), "error")
		p.logger.Error("page unavailable",
			zap.String("url", url),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return "", &f1.DataExtractionError{Source: url, Err: err}
	}
	metrics.ObservePage(p.backend.Name(), "ok")
	p.logger.Debug("page fetched", zap.String("url", url), zap.Int("bytes", len(body)))
	if p.backend.Name() != BrowserBackend && LooksScriptRendered(body) {
		metrics.ObservePage(p.backend.Name(), "script_shell")
		p.logger.Warn("page looks script-rendered; tables may be missing without scraping.backend=browser",
			zap.String("url", url),
		)
	}

	delay := p.politenessDelay()
	metrics.ObservePolitenessDelay(delay)
	if err := p.sleeper.Sleep(ctx, delay); err != nil {
		p.logger.Debug("politeness delay interrupted", zap.Error(err))
	}
	return string(body), nil
}

// headers builds the browser-like header set with a rotated User-Agent.
func (p *PageFetcher) headers() http.Header {
	h := http.Header{}
	if ua := p.userAgent(); ua != "" {
		h.Set("User-Agent", ua)
	}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	if lang := strings.TrimSpace(p.cfg.AcceptLanguage); lang != "" {
		h.Set("Accept-Language", lang)
	}
	h.Set("Connection", "keep-alive")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

func (p *PageFetcher) userAgent() string {
	if len(p.cfg.UserAgents) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.UserAgents[p.rng.IntN(len(p.cfg.UserAgents))]
}

// politenessDelay draws uniformly from [MinDelay, MaxDelay].
func (p *PageFetcher) politenessDelay() time.Duration {
	span := p.cfg.MaxDelay - p.cfg.MinDelay
	if span <= 0 {
		return p.cfg.MinDelay
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.MinDelay + time.Duration(p.rng.Int64N(int64(span)+1))
}
