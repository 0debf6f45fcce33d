// Package cmd defines and implements the CLI commands for the f1data executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/app"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/config"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newLogger builds the process logger. It's a variable so tests can keep
// log files out of the working directory.
var newLogger = func(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.General.LogLevel,
		Dir:         cfg.General.LogDir,
	})
}

// newRootCmd creates and configures the root command. The returned func
// releases the App once the command has finished, whether it failed or not.
func newRootCmd() (*cobra.Command, func()) {
	var (
		cfgFile     string
		appInstance *app.App
	)
	cmd := &cobra.Command{
		Use:   "f1data",
		Short: "Collect, store and serve Formula 1 statistics.",
		Long: `f1data gathers season results, driver standings and race-day weather
from the Ergast and Open-Meteo APIs, normalizes them into a relational
database and serves them over a token-protected REST API.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Build the application once the flags are parsed, before the
		// subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			appInstance, err = app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); F1DATA_* environment variables override it")

	cmd.AddCommand(
		newCollectCmd(),
		newLoadCmd(),
		newResetCmd(),
		newDeleteRaceCmd(),
		newServeCmd(),
		newReportCmd(),
		newScrapeCmd(),
		newCacheCmd(),
	)
	return cmd, func() {
		if appInstance != nil {
			appInstance.Close()
		}
	}
}

// resolveApp retrieves the App built by the root command.
func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. It cancels the command context on
// SIGINT/SIGTERM and exits non-zero on failure.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, closeApp := newRootCmd()
	defer closeApp()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
