package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/openbbs/cmd/openbbs/cmdutil"
	"github.com/marmos91/openbbs/internal/logger"
	"github.com/marmos91/openbbs/internal/telemetry"
	"github.com/marmos91/openbbs/pkg/adapter/telnet"
	"github.com/marmos91/openbbs/pkg/api"
	"github.com/marmos91/openbbs/pkg/bbs/session"
	"github.com/marmos91/openbbs/pkg/bbs/settings"
	"github.com/marmos91/openbbs/pkg/bbs/store"
	"github.com/marmos91/openbbs/pkg/config"
	"github.com/marmos91/openbbs/pkg/metrics"
	"github.com/marmos91/openbbs/pkg/metrics/prometheus"
)

var noWatch bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the OpenBBS server",
	Long: `Start the OpenBBS server in the foreground.

The server runs until it receives SIGINT or SIGTERM, then stops accepting
connections, lets running sessions finish for up to shutdown_timeout and
closes the rest. Run it under a process supervisor to detach it.

The bbs section of the configuration file (texts, boards, operators) and
the log level are reloaded when the file changes.

Examples:
  # Start with the default config location
  openbbs start

  # Start with custom config file
  openbbs start --config /etc/openbbs/config.yaml

  # Start with environment variable overrides
  OPENBBS_LOGGING_LEVEL=DEBUG OPENBBS_SERVER_PORT=2323 openbbs start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the configuration file when it changes")
}

func runStart(cmd *cobra.Command, args []string) error {
	configPath := config.ResolvePath(cmdutil.Flags.ConfigFile)

	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Telemetry.ServiceVersion = Version
	telemetryShutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		// ctx is already cancelled by the time this runs.
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	fmt.Printf("OpenBBS %s\n", Version)
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", logger.KeyPath, configPath)
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// The registry must exist before the collectors are built.
	var (
		bbsMetrics     metrics.BBSMetrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		bbsMetrics = prometheus.NewBBSMetrics()
		metricsHandler = metrics.Handler()
		logger.Info("Metrics enabled", "path", "/metrics")
	}

	st, err := store.New(&cfg.Database, cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()
	logger.Info("Store opened", logger.KeyDatabase, string(cfg.Database.Type))

	holder := settings.NewHolder(cfg.Settings(Version))
	engine := session.NewEngine(st, holder, session.Config{IdleTimeout: cfg.Server.IdleTimeout}, bbsMetrics)

	bbs, err := telnet.New(telnet.Config{
		BindAddress:        cfg.Server.Host,
		Port:               cfg.Server.Port,
		MaxConnections:     cfg.Server.MaxConnections,
		ShutdownTimeout:    cfg.ShutdownTimeout,
		MetricsLogInterval: cfg.Server.MetricsLogInterval,
	}, engine, bbsMetrics)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bbs.Serve(gctx)
	})

	if cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, api.Deps{
			Store:     st,
			Sessions:  bbs,
			Metrics:   metricsHandler,
			StartTime: time.Now(),
		})
		g.Go(func() error {
			return apiServer.Start(gctx)
		})
		logger.Info("API server enabled", logger.KeyPort, cfg.API.Port)
	}

	if _, statErr := os.Stat(configPath); !noWatch && statErr == nil {
		g.Go(func() error {
			return config.Watch(gctx, configPath, reloader(cfg, holder, st))
		})
	}

	logger.Info("Server is running. Press Ctrl+C to stop.", logger.KeyPort, cfg.Server.Port)

	if err := g.Wait(); err != nil {
		logger.Error("Server error", logger.Err(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// reloader applies the parts of a new configuration that take effect
// without a restart.
func reloader(current *config.Config, holder *settings.Holder, st *store.GORMStore) func(*config.Config) {
	return func(next *config.Config) {
		holder.Store(next.Settings(Version))
		st.SetOperators(next.BBS.Operators)
		logger.SetLevel(next.Logging.Level)

		logger.Info("Settings reloaded",
			"boards", len(next.BBS.Boards),
			"operators", len(next.BBS.Operators))

		if next.Server != current.Server || next.Database != current.Database || next.API != current.API {
			logger.Warn("Server, database and api changes take effect after a restart")
		}
	}
}
