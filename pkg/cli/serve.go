package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcptap/mcptap/pkg/capture"
	"github.com/mcptap/mcptap/pkg/config"
	"github.com/mcptap/mcptap/pkg/logging"
	"github.com/mcptap/mcptap/pkg/proxy"
	"github.com/mcptap/mcptap/pkg/replay"
	"github.com/mcptap/mcptap/pkg/router"
	"github.com/mcptap/mcptap/pkg/store"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

// serveFlags holds the flag values for the serve command.
type serveFlags struct {
	configFile  string
	mode        string
	listen      string
	sessionDir  string
	sessionRef  string
	threshold   float64
	onCacheMiss string
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proxy (foreground)",
	Long: `Start the proxy in record or replay mode.

In record mode every request is forwarded to the routed upstream server
and the exchange is captured; the session is saved on shutdown. In
replay mode requests are answered from a previously recorded session
without contacting the real servers.`,
	Example: `  # Record against servers from a config file
  mcptap serve --config mcptap.yaml

  # Replay the most recent session
  mcptap serve --config mcptap.yaml --mode replay

  # Replay a specific session with a looser match threshold
  mcptap serve --config mcptap.yaml --mode replay --session sess-id --threshold 0.7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(&serveFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to configuration file (YAML or JSON)")
	serveCmd.Flags().StringVarP(&f.mode, "mode", "m", "", "Operating mode (record, replay)")
	serveCmd.Flags().StringVarP(&f.listen, "listen", "l", "", "Listen address, e.g. :8080")
	serveCmd.Flags().StringVar(&f.sessionDir, "session-dir", "", "Directory session artifacts are saved to")
	serveCmd.Flags().StringVar(&f.sessionRef, "session", "", "Session to replay, by ID or file path (default: most recent)")
	serveCmd.Flags().Float64Var(&f.threshold, "threshold", 0, "Semantic match threshold in (0, 1]")
	serveCmd.Flags().StringVar(&f.onCacheMiss, "on-cache-miss", "", "Replay miss policy (error, passthrough, mock)")
}

// runServe loads configuration, wires the components and serves until a
// termination signal arrives.
func runServe(f *serveFlags) error {
	cfg, err := loadServeConfig(f)
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	sessions, err := store.NewFileStore(cfg.Storage.Dir, log)
	if err != nil {
		return err
	}

	table, err := buildRoutingTable(cfg, log)
	if err != nil {
		return err
	}

	engine := capture.NewEngine(capture.NewSession(cfg.Mode), log)

	opts := proxy.Options{
		Mode:   cfg.Mode,
		Table:  table,
		Engine: engine,
		Log:    log,
	}

	if cfg.Mode == capture.ModeReplay {
		recorded, err := loadReplaySession(cfg, sessions)
		if err != nil {
			return err
		}
		log.Info("loaded session for replay",
			"sessionId", recorded.ID, "calls", len(recorded.Calls))

		opts.Matcher = replay.NewMatcher(recorded.Calls, cfg.Replay.Threshold, log)
		opts.OnCacheMiss = cfg.Replay.OnCacheMiss
		opts.MockResponse = json.RawMessage(cfg.Replay.MockResponse)
	}

	srv := proxy.NewServer(cfg.Listen, proxy.NewHandler(opts), engine, sessions, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-errCh
}

// loadServeConfig reads the config file (or starts from defaults) and
// applies flag overrides.
func loadServeConfig(f *serveFlags) (*config.Config, error) {
	var cfg *config.Config
	if f.configFile != "" {
		loaded, err := config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if f.mode != "" {
		cfg.Mode = capture.Mode(f.mode)
	}
	if f.listen != "" {
		cfg.Listen = f.listen
	}
	if f.sessionDir != "" {
		cfg.Storage.Dir = f.sessionDir
	}
	if f.sessionRef != "" {
		cfg.Replay.Session = f.sessionRef
	}
	if f.threshold != 0 {
		cfg.Replay.Threshold = f.threshold
	}
	if f.onCacheMiss != "" {
		cfg.Replay.OnCacheMiss = replay.MissPolicy(f.onCacheMiss)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(firstNonEmpty(logLevel, cfg.Logging.Level))
	logCfg.Format = logging.ParseFormat(firstNonEmpty(logFormat, cfg.Logging.Format))
	return logging.New(logCfg)
}

// buildRoutingTable seeds the table from config and discovers tools for
// servers without static lists.
func buildRoutingTable(cfg *config.Config, log *slog.Logger) (*router.Table, error) {
	table := router.NewTable(log)
	skip := make(map[string]bool)

	for i := range cfg.Servers {
		srv := &cfg.Servers[i]
		if err := table.AddServer(srv.Name, srv.URL); err != nil {
			return nil, err
		}
		if srv.HasStaticTools() {
			if err := table.RegisterTools(srv.Name, srv.Tools); err != nil {
				return nil, err
			}
			skip[srv.Name] = true
		}
	}

	if len(cfg.Servers) == 0 {
		return table, nil
	}

	// Replay mode only needs the table for passthrough, and a dead
	// upstream must not block startup there either.
	ctx, cancel := context.WithTimeout(context.Background(), router.DefaultDiscoveryTimeout)
	defer cancel()

	d := router.NewDiscoverer(table, nil, log)
	if err := d.DiscoverAll(ctx, skip); err != nil {
		if cfg.Mode == capture.ModeRecord {
			return nil, fmt.Errorf("startup discovery: %w", err)
		}
		log.Warn("discovery failed, continuing in replay mode", "error", err)
	}
	return table, nil
}

// loadReplaySession loads the configured session, or the latest.
func loadReplaySession(cfg *config.Config, sessions store.Store) (*capture.SessionExport, error) {
	if cfg.Replay.Session != "" {
		return sessions.Load(cfg.Replay.Session)
	}
	export, err := sessions.Latest()
	if err != nil {
		return nil, fmt.Errorf("no session to replay (record one first or pass --session): %w", err)
	}
	return export, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
