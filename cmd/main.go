package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "shopfloor_dashboard/docs"
	"shopfloor_dashboard/internal/backend"
	"shopfloor_dashboard/internal/config"
	"shopfloor_dashboard/internal/handlers"
	"shopfloor_dashboard/internal/logger"
	"shopfloor_dashboard/internal/metrics"
	"shopfloor_dashboard/internal/repository"
	"shopfloor_dashboard/internal/repository/db"
	"shopfloor_dashboard/internal/server"
	"shopfloor_dashboard/internal/service"
	"shopfloor_dashboard/internal/store"
	"shopfloor_dashboard/internal/stream"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

// @title                       Shop-floor Dashboard API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds global flags.
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "shopfloor-dashboard",
		Short:         "Shop-floor dashboard state sync service",
		Long:          "Keeps machine, order, safety and triage state in sync with the backend and serves it to dashboards.",
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default configs/config.yml)")
	cmd.PersistentFlags().String("port", "", "HTTP listen port")
	cmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	_ = v.BindPFlag("port", cmd.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync loops and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v, opts.configPath)
		},
	}
	cmd.AddCommand(serve)
	cmd.RunE = serve.RunE

	return cmd
}

func runServe(parent context.Context, v *viper.Viper, configPath string) error {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}

	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	conn, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Errorw("failed to init sqlite", "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	client, err := backend.NewClient(cfg.Backend.APIURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithAsyncPublish(cfg.Publish.Async),
	)
	if err != nil {
		return err
	}

	// wire dependencies
	m := metrics.New()
	repos := repository.NewRepository(conn)
	services := service.NewService(service.Deps{
		Repos:   repos,
		Backend: client,
		Limits: store.Limits{
			Machines:  cfg.Stores.MachinesCap,
			Orders:    cfg.Stores.OrdersCap,
			Safety:    cfg.Stores.SafetyCap,
			Logs:      cfg.Stores.LogsCap,
			Workflows: cfg.Stores.WorkflowsCap,
		},
		Stream: stream.Config{
			URL:         cfg.Backend.WSURL,
			BackoffBase: cfg.Stream.BackoffBase,
			BackoffMax:  cfg.Stream.BackoffMax,
			ReadTimeout: cfg.Stream.ReadTimeout,
		},
		SnapshotInterval: cfg.Snapshot.Interval,
		Auth: service.AuthConfig{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
		},
		Log:     log,
		Metrics: m,
	})
	apiHandler := handlers.NewHandler(services, log, m)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := services.Start(ctx); err != nil {
		return err
	}
	log.Infow("sync_started", "api_url", cfg.Backend.APIURL, "ws_url", cfg.Backend.WSURL)

	srv := &server.Server{}
	serverErr := runHTTPServer(srv, server.Config{
		Port:              cfg.Port,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, apiHandler, log)

	return waitForShutdown(ctx, serverErr, services, srv, log)
}

// openDB initializes the audit SQLite database.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", config.DefaultDBPath)
		path = config.DefaultDBPath
	}
	return db.InitDB(path)
}

// runHTTPServer runs the HTTP server in a separate goroutine. The returned
// channel receives the server's terminal error, if any.
func runHTTPServer(srv *server.Server, cfg server.Config, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Infow("http_server_listening", "port", cfg.Port)
		if err := srv.Run(cfg, handler.InitRoutes()); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// waitForShutdown blocks until a termination signal or a server failure, then
// stops the sync loops and drains in-flight requests.
func waitForShutdown(ctx context.Context, serverErr <-chan error, services *service.Service, srv *server.Server, log *logger.Logger) error {
	var runErr error
	select {
	case <-ctx.Done():
		log.Infow("shutting down server...")
	case err, ok := <-serverErr:
		if ok && err != nil {
			log.Errorw("http_server_failed", "err", err)
			runErr = err
		}
	}

	// stream closed, timer canceled, late pulls discarded
	services.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("server forced to shutdown", "err", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
