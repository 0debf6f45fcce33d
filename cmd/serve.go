package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/api"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/auth"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API over the relational and document stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := a.Config()
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			if port == 0 {
				port = cfg.API.Port
			}

			s, err := a.Store(cmd.Context())
			if err != nil {
				return err
			}
			var perf api.Performance
			docs, err := a.Documents(cmd.Context())
			if err != nil {
				return err
			}
			if docs != nil {
				perf = docs
			} else {
				a.Logger().Info("mongo.uri is empty; /performance answers 503")
			}
			tokens, err := auth.NewManager(cfg.API.SecretKey)
			if err != nil {
				return err
			}

			server := api.NewServer(s, perf, tokens, api.Options{
				Password:             cfg.API.Password,
				DefaultTokenDuration: time.Duration(cfg.API.DefaultTokenSeconds) * time.Second,
				EmptyAsMessage:       cfg.API.EmptyAsMessage,
				CORSOrigins:          cfg.API.CORSOrigins,
				RateLimitPerMinute:   cfg.API.RateLimitPerMinute,
			}, a.Logger().Named("api"))

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           server.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serveUntilDone(cmd.Context(), srv, a.Logger())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default api.port)")
	return cmd
}

// serveUntilDone runs srv until ctx is canceled or the listener fails, then
// drains it.
func serveUntilDone(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	})
	return g.Wait()
}
