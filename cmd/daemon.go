package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/kantong/internal/cli"
	"github.com/theirongolddev/kantong/internal/collator"
	"github.com/theirongolddev/kantong/internal/config"
	"github.com/theirongolddev/kantong/internal/daemon"
	"github.com/theirongolddev/kantong/internal/feed"
	applog "github.com/theirongolddev/kantong/internal/log"
	"github.com/theirongolddev/kantong/internal/store"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	User      string    `json:"user"`
	Backend   string    `json:"backend"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonNoWatch      bool
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background dashboard daemon with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(config.DataDir(), "kantongd.pid")
	defaultLog := filepath.Join(config.DataDir(), "kantongd.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonNoWatch, "no-watch", false, "Disable database file watching")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonConfig merges daemon flags over the config file.
func daemonConfig() (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	if flagDaemonAddr != "" {
		cfg.Daemon.Addr = flagDaemonAddr
	}
	if flagDaemonInterval > 0 {
		cfg.Daemon.Interval = config.Duration{Duration: flagDaemonInterval}
	}
	if flagDaemonEventsBuffer > 0 {
		cfg.Daemon.EventsBuffer = flagDaemonEventsBuffer
	}
	if flagDaemonNoWatch {
		cfg.Daemon.Watch = false
	}
	return cfg, cfg.Validate()
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	cfg, err := daemonConfig()
	if err != nil {
		return err
	}

	if flagDaemonDetach {
		return startDaemonDetached(cfg)
	}

	return runDaemonForeground(commandContext(cmd), cfg)
}

func startDaemonDetached(cfg config.Config) error {
	if err := ensureDaemonNotRunning(flagDaemonPIDFile); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonPIDFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	cmd := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.Stdin = nil
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", flagDaemonPIDFile)
	fmt.Printf("  API: http://%s/v1/status\n", cfg.Daemon.Addr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground(parent context.Context, cfg config.Config) error {
	if err := ensureDaemonNotRunning(flagDaemonPIDFile); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(flagDaemonPIDFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}

	pid := os.Getpid()
	if err := writePID(flagDaemonPIDFile, pid); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagDaemonPIDFile) }()

	state := daemonRuntimeState{
		PID:       pid,
		Addr:      cfg.Daemon.Addr,
		StartedAt: time.Now(),
		User:      cfg.General.UserID,
		Backend:   cfg.General.Backend,
	}
	_ = writeState(statePath(flagDaemonPIDFile), state)
	defer func() { _ = os.Remove(statePath(flagDaemonPIDFile)) }()

	// The daemon is worth logging at info even when the CLI default is warn.
	level := cfg.Log.Level
	if flagLogLevel == "" && applog.ParseLevel(level) > slog.LevelInfo {
		level = "info"
	}
	logger := applog.New(applog.Config{Level: level, Format: cfg.Log.Format})

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntimeWith(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc := daemon.New(daemon.Config{
		User:         cfg.General.UserID,
		Backend:      cfg.General.Backend,
		Interval:     cfg.Daemon.Interval.Duration,
		Addr:         cfg.Daemon.Addr,
		EventsBuffer: cfg.Daemon.EventsBuffer,
		Logger:       logger,
	})
	c, f := rt.newSession(collator.WithSink(svc))

	fmt.Printf("  kantong daemon listening on http://%s\n", cfg.Daemon.Addr)
	fmt.Printf("  Polling every %s for user %s (%s)\n", cfg.Daemon.Interval, cfg.General.UserID, cfg.General.Backend)
	fmt.Printf("  Stop with: kantong daemon stop --pid-file %s\n", flagDaemonPIDFile)

	err = runSession(ctx, rt, c, f, logger, func(gctx context.Context) error { return svc.Run(gctx) })
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runSession drives one dashboard session: the collator loop, the initial
// load, polling, optional file watching and change notices, plus any extra
// workers. It ends the session with a reset once everything has stopped.
func runSession(ctx context.Context, rt *runtime, c *collator.Collator, f *feed.Feed, logger *slog.Logger, extra ...func(context.Context) error) error {
	cfg := rt.cfg
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.Run(gctx) })
	for _, fn := range extra {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}

	g.Go(func() error {
		if err := startFeed(gctx, f, cfg.Daemon.Interval.Duration, logger); err != nil {
			return err
		}
		return f.Poll(gctx, cfg.Daemon.Interval.Duration)
	})

	if db, ok := rt.store.(*store.SQLite); ok && cfg.Daemon.Watch {
		g.Go(func() error {
			if err := f.Watch(gctx, db.Path(), cfg.Daemon.Debounce.Duration); err != nil && gctx.Err() == nil {
				logger.Warn("file watch stopped; relying on polling", applog.FieldError, err)
			}
			return nil
		})
	}

	if rt.bus != nil {
		g.Go(func() error {
			if err := f.Listen(gctx, rt.bus); err != nil && gctx.Err() == nil {
				logger.Warn("change bus stopped; relying on polling", applog.FieldError, err)
			}
			return nil
		})
	}

	err := g.Wait()
	c.Apply(collator.ResetUpdate())
	return err
}

// startFeed retries the initial load until the profile can be read.
func startFeed(ctx context.Context, f *feed.Feed, retry time.Duration, logger *slog.Logger) error {
	for {
		err := f.Start(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("initial load failed; retrying", applog.FieldError, err, "retry_in", retry.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagDaemonPIDFile)
	if err != nil {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}

	alive := processAlive(pid)
	if !alive {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if st, err := readState(statePath(flagDaemonPIDFile)); err == nil && st.Addr != "" {
		addr = st.Addr
	}
	if addr == "" {
		addr = config.DefaultConfig().Daemon.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	if st.LastFrameAt.IsZero() {
		fmt.Printf("  Last update: pending\n")
	} else {
		fmt.Printf("  Last update: %s\n", st.LastFrameAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  User: %s (%s)\n", st.User, st.Backend)
	fmt.Printf("  Frames: %d\n", st.FrameCount)
	fmt.Printf("  Risk: %d%% (%s)\n", st.Summary.RiskScore, st.Summary.Tiers.Risk)
	fmt.Printf("  Cash balance: %s\n", cli.FormatRupiah(st.Summary.CashBalance))
	fmt.Printf("  Emergency fund: %d%% (%s)\n", st.Summary.EmergencyPercent, st.Summary.Tiers.Emergency)
	for _, s := range collator.Streams {
		if h, ok := st.Streams[s]; ok && h.Stale() {
			fmt.Printf("  Stream %s: failing since %s (%s)\n", s, h.FailedAt.Local().Format(time.RFC3339), h.LastError)
		}
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagDaemonPIDFile)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(flagDaemonPIDFile)
			_ = os.Remove(statePath(flagDaemonPIDFile))
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ensureDaemonNotRunning(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	_ = os.Remove(pidFile)
	_ = os.Remove(statePath(pidFile))
	return nil
}

func writePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func readPID(path string) (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func statePath(pidFile string) string {
	return pidFile + ".json"
}

func writeState(path string, st daemonRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readState(path string) (daemonRuntimeState, error) {
	var st daemonRuntimeState
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, err
	}
	return st, nil
}
