package fetcher

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/retry"
)

type scriptedBackend struct {
	responses []Response
	errs      []error
	requests  []Request
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Fetch(_ context.Context, req Request) (Response, error) {
	i := len(b.requests)
	b.requests = append(b.requests, req)
	var err error
	if i < len(b.errs) {
		err = b.errs[i]
	}
	if i < len(b.responses) {
		return b.responses[i], err
	}
	return Response{}, err
}

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

var testConfig = Config{
	UserAgents:     []string{"agent-a", "agent-b"},
	AcceptLanguage: "fr-FR,fr;q=0.9",
	MinDelay:       3 * time.Second,
	MaxDelay:       7 * time.Second,
}

func newFetcher(backend Backend, sleeper retry.Sleeper) *PageFetcher {
	return New(backend, retry.DefaultPolicy(), testConfig, zap.NewNop(),
		WithSleeper(sleeper),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
}

func TestFetchSendsBrowserHeadersAndPauses(t *testing.T) {
	t.Parallel()

	backend := &scriptedBackend{responses: []Response{{StatusCode: http.StatusOK, Body: []byte("<html>ok</html>")}}}
	sleeper := &recordingSleeper{}

	html, err := newFetcher(backend, sleeper).Fetch(context.Background(), "https://example.test/race")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)

	require.Len(t, backend.requests, 1)
	h := backend.requests[0].Header
	assert.Contains(t, testConfig.UserAgents, h.Get("User-Agent"))
	assert.Equal(t, "fr-FR,fr;q=0.9", h.Get("Accept-Language"))
	assert.Equal(t, "1", h.Get("DNT"))
	assert.Equal(t, "1", h.Get("Upgrade-Insecure-Requests"))
	assert.Equal(t, "keep-alive", h.Get("Connection"))
	assert.Contains(t, h.Get("Accept"), "text/html")

	require.Len(t, sleeper.waits, 1)
	assert.GreaterOrEqual(t, sleeper.waits[0], 3*time.Second)
	assert.LessOrEqual(t, sleeper.waits[0], 7*time.Second)
}

func TestFetchRetriesNon2xx(t *testing.T) {
	t.Parallel()

	backend := &scriptedBackend{responses: []Response{
		{StatusCode: http.StatusServiceUnavailable},
		{StatusCode: http.StatusTooManyRequests},
		{StatusCode: http.StatusOK, Body: []byte("third time")},
	}}
	sleeper := &recordingSleeper{}

	html, err := newFetcher(backend, sleeper).Fetch(context.Background(), "https://example.test")
	require.NoError(t, err)
	assert.Equal(t, "third time", html)
	require.Len(t, sleeper.waits, 3)
	assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second}, sleeper.waits[:2])
}

func TestFetchExhaustionIsExtractionError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	backend := &scriptedBackend{errs: []error{boom, boom, boom}}
	sleeper := &recordingSleeper{}

	_, err := newFetcher(backend, sleeper).Fetch(context.Background(), "https://example.test/gone")
	var extractErr *f1.DataExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "https://example.test/gone", extractErr.Source)
	require.ErrorIs(t, err, boom)
	assert.Len(t, backend.requests, 3)
	assert.Len(t, sleeper.waits, 2, "no politeness delay after a failure")
}

func TestFetchCanceledDoesNotRetry(t *testing.T) {
	t.Parallel()

	backend := &scriptedBackend{errs: []error{context.Canceled}}
	_, err := newFetcher(backend, &recordingSleeper{}).Fetch(context.Background(), "https://example.test")
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, backend.requests, 1)
}

func TestPolitenessDelayBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		min, max time.Duration
	}{
		{name: "range", min: time.Second, max: 2 * time.Second},
		{name: "fixed", min: 5 * time.Second, max: 5 * time.Second},
		{name: "inverted", min: 3 * time.Second, max: time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := New(&scriptedBackend{}, retry.DefaultPolicy(), Config{MinDelay: tt.min, MaxDelay: tt.max}, nil,
				WithRand(rand.New(rand.NewPCG(7, 7))))
			for range 50 {
				d := p.politenessDelay()
				assert.GreaterOrEqual(t, d, tt.min)
				assert.LessOrEqual(t, d, max(tt.min, tt.max))
			}
		})
	}
}

func TestUserAgentEmptyPool(t *testing.T) {
	t.Parallel()
	p := New(&scriptedBackend{}, retry.DefaultPolicy(), Config{}, nil)
	assert.Empty(t, p.userAgent())
	assert.Equal(t, "scripted", p.Backend())
}

func TestFetchWarnsWhenResultsTableIsMissing(t *testing.T) {
	t.Parallel()

	shell := []byte(`<html><body><div id="__next"></div><script src="/_next/main.js"></script></body></html>`)
	table := []byte(`<html><body><table><tr><th>Pos</th><th>Driver</th></tr></table></body></html>`)
	backend := &scriptedBackend{responses: []Response{
		{StatusCode: http.StatusOK, Body: shell},
		{StatusCode: http.StatusOK, Body: table},
	}}
	core, logs := observer.New(zap.WarnLevel)
	p := New(backend, retry.DefaultPolicy(), testConfig, zap.New(core), WithSleeper(&recordingSleeper{}))

	_, err := p.Fetch(context.Background(), "https://example.test/shell")
	require.NoError(t, err)
	_, err = p.Fetch(context.Background(), "https://example.test/results")
	require.NoError(t, err)

	warned := logs.FilterMessageSnippet("script-rendered").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "https://example.test/shell", warned[0].ContextMap()["url"])
}
