package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/auth"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/metrics"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage/mongostore"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

// Performance serves the speed aggregations of the document store.
type Performance interface {
	PerformanceByCircuit(ctx context.Context, circuit string, year *int) ([]mongostore.RacePerformance, error)
	WeatherImpact(ctx context.Context, year *int) ([]mongostore.ConditionSpeed, error)
}

// Options tunes the server behavior.
type Options struct {
	// Password is exchanged for tokens on POST /token.
	Password string
	// DefaultTokenDuration applies when the token request has no duration.
	DefaultTokenDuration time.Duration
	// EmptyAsMessage answers empty results with {"message": ...} instead of [].
	EmptyAsMessage bool
	CORSOrigins    []string
	// RateLimitPerMinute caps requests per client IP; 0 disables the limit.
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

// Server wires HTTP handlers to the stores.
type Server struct {
	router   chi.Router
	reader   store.Reader
	perf     Performance
	tokens   *auth.Manager
	opts     Options
	validate *validator.Validate
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes. perf may be nil
// when no document store is configured.
func NewServer(reader store.Reader, perf Performance, tokens *auth.Manager, opts Options, logger *zap.Logger) *Server {
	if opts.DefaultTokenDuration <= 0 {
		opts.DefaultTokenDuration = time.Hour
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{
		reader:   reader,
		perf:     perf,
		tokens:   tokens,
		opts:     opts,
		validate: validator.New(),
		logger:   logging.OrNop(logger),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if opts.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
	}
	r.Use(timeoutMiddleware(opts.RequestTimeout))

	r.Get("/", s.root)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/token", s.issueToken)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerMiddleware)
		r.Get("/races/{year}", s.racesByYear)
		r.Get("/driver/{name}", s.driverStats)
		r.Get("/performance/{circuit}", s.circuitPerformance)
		r.Get("/weather-impact", s.weatherImpact)
		r.Get("/championship/races/{year}", s.championshipRaces)
		r.Get("/championship/races/{year}/detailed", s.detailedChampionship)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}
