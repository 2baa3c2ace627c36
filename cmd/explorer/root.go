package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/graphql-explorer/internal/config"
	"github.com/Sternrassler/graphql-explorer/pkg/logging"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X main.Version=1.2.3" ./cmd/explorer
var Version = "0.1.0"

const shutdownTimeout = 10 * time.Second

type options struct {
	configPath string
	port       int
	logLevel   string
	pretty     bool
}

// newRootCmd builds the command tree. The root command runs the server.
func newRootCmd() *cobra.Command {
	opts := &options{}
	var cfg *config.AppConfig

	root := &cobra.Command{
		Use:   "explorer",
		Short: "Web explorer for chain GraphQL endpoints",
		Long: `explorer serves block, transaction and account pages for the GraphQL
endpoints listed in EXPLORER_GRAPHQL_ENDPOINTS (or GRAPHQL_ENDPOINTS), a JSON
array of {"name", "uri"} objects. The first entry is the default endpoint.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cmd, opts)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml if present)")
	root.PersistentFlags().IntVar(&opts.port, "port", 0, "listen port (overrides server.port)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-readable console logs")

	current := func() *config.AppConfig { return cfg }
	root.AddCommand(newEndpointsCmd(current), newCacheCmd(current))

	return root
}

// loadConfig reads the configuration, applies flag overrides and sets up
// logging.
func loadConfig(cmd *cobra.Command, opts *options) (*config.AppConfig, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "explorer: %v\n", err)
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = opts.port
	}
	if opts.logLevel != "" {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			return nil, err
		}
		cfg.Log.Level = opts.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = opts.pretty
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.Setup(logging.Config{
		Level:   level,
		Pretty:  cfg.Log.Pretty,
		Output:  cmd.ErrOrStderr(),
		Service: "graphql-explorer",
	})

	return cfg, nil
}

// serve runs the HTTP server until ctx is done.
func serve(ctx context.Context, cfg *config.AppConfig) error {
	logger := logging.NewLogger("server")

	app, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("default_endpoint", cfg.Endpoints.Default().Name).
			Int("endpoints", cfg.Endpoints.Len()).
			Msg("Starting explorer server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
