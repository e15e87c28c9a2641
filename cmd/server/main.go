/*
main.go - Application entry point

PURPOSE:
  The leavecal command. `leavecal serve` runs the HTTP API; the other
  subcommands work on the same database directly, for scripting and
  recovery.

STARTUP SEQUENCE (serve):
  1. Load config (.env, LEAVECAL_* environment, then flags)
  2. Open the store (SQLite, or memory with --memory)
  3. Build the tracker service with the metrics collector as observer
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMANDS:
  serve                          Run the HTTP API
  user add EMAIL NAME            Register a user
  ledger --user ID               Print the derived ledger as JSON
  export --user ID [--out FILE]  Write a backup document
  import --user ID --in FILE     Replace a user's log from a backup
  claim --user ID EVENT_ID...    Claim extra days

FLAGS:
  Flags override the environment:
  --db          LEAVECAL_DB_PATH
  --memory      LEAVECAL_MEMORY
  --log-level   LEAVECAL_LOG_LEVEL
  --log-format  LEAVECAL_LOG_FORMAT
  --port        LEAVECAL_PORT (serve only)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (LEAVECAL_SHUTDOWN_TIMEOUT)
  3. Close database connection
  4. Exit

SEE ALSO:
  - commands.go: user, ledger, export, import, claim
  - config/config.go: Environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/leave-calendar/api"
	"github.com/warp/leave-calendar/config"
	"github.com/warp/leave-calendar/metrics"
	"github.com/warp/leave-calendar/store/memory"
	"github.com/warp/leave-calendar/store/sqlite"
	"github.com/warp/leave-calendar/tracker"
)

var (
	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "leavecal",
	Short:         "Personal leave calendar with a leave-credit ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}
		log = cfg.Logger(os.Stderr)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "SQLite database path (\":memory:\" for a throwaway database)")
	pf.Bool("memory", false, "Use the in-memory store instead of SQLite")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")

	serveCmd.Flags().Int("port", 0, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath, _ = flags.GetString("db")
	}
	if flags.Changed("memory") {
		c.Memory, _ = flags.GetBool("memory")
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		c.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		c.Port, _ = flags.GetInt("port")
	}
	return c.Validate()
}

// openService opens the configured store and builds the service on it.
func openService(opts ...tracker.Option) (*tracker.Service, io.Closer, error) {
	var store tracker.Store
	var closer io.Closer = nopCloser{}

	if cfg.Memory {
		store = memory.New()
		log.Warn("using in-memory store, data is lost on exit")
	} else {
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		store, closer = s, s
	}

	opts = append([]tracker.Option{
		tracker.WithLogger(log),
		tracker.WithDefaultBalance(cfg.DefaultCasualLeave, cfg.DefaultExtraDays),
	}, opts...)
	return tracker.NewService(store, opts...), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// =============================================================================
// SERVE
// =============================================================================

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	collector := metrics.New()

	svc, closer, err := openService(tracker.WithObserver(collector))
	if err != nil {
		return err
	}
	defer closer.Close()

	handler := api.NewHandler(svc, log)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        collector,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":   server.Addr,
			"db":     cfg.DBPath,
			"memory": cfg.Memory,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
