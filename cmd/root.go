package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kantong/internal/amqp"
	"github.com/theirongolddev/kantong/internal/collator"
	"github.com/theirongolddev/kantong/internal/config"
	"github.com/theirongolddev/kantong/internal/feed"
	"github.com/theirongolddev/kantong/internal/ledger"
	applog "github.com/theirongolddev/kantong/internal/log"
	"github.com/theirongolddev/kantong/internal/store"
)

var (
	flagConfig   string
	flagUser     string
	flagBackend  string
	flagDBPath   string
	flagLogLevel string
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:           "kantong",
	Short:         "Personal budgeting dashboard",
	Long:          "Track income, spending and savings against the 50/30/10/10 rule, with a lifestyle risk score and an emergency-fund tracker.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %s\n", errorMessage(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Store backend: sqlite, postgres or memory")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// errorMessage unwraps validation errors to their user-facing text.
func errorMessage(err error) string {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	if flagUser != "" {
		cfg.General.UserID = flagUser
	}
	if flagBackend != "" {
		cfg.General.Backend = flagBackend
	}
	if flagDBPath != "" {
		cfg.General.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, cfg.Validate()
}

// runtime is the shared wiring used by every command that touches data.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	store  store.Store
	bus    *amqp.Client
	ledger *ledger.Ledger
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openRuntimeWith(ctx, cfg, applog.New(applog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}))
}

func openRuntimeWith(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	st, err := store.Open(ctx, store.Config{
		Backend:     cfg.General.Backend,
		DBPath:      cfg.General.DBPath,
		PostgresDSN: cfg.General.PostgresDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.General.Backend, err)
	}

	rt := &runtime{cfg: cfg, logger: logger, store: st}

	var opts []ledger.Option
	if cfg.AMQP.URL != "" {
		bus, err := amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingPrefix, logger)
		if err != nil {
			// Change notices are an optimization; polling still picks writes up.
			logger.Warn("change bus unavailable", applog.FieldError, err)
		} else {
			rt.bus = bus
			opts = append(opts, ledger.WithPublisher(bus))
		}
	}
	opts = append(opts, ledger.WithLogger(logger))
	rt.ledger = ledger.New(st, cfg.General.UserID, opts...)
	return rt, nil
}

func (r *runtime) user() string { return r.cfg.General.UserID }

func (r *runtime) Close() {
	if r.bus != nil {
		_ = r.bus.Close()
	}
	_ = r.store.Close()
}

// newSession builds a collator and a feed that delivers into it through
// the collator's queue. The caller runs the collator.
func (r *runtime) newSession(opts ...collator.Option) (*collator.Collator, *feed.Feed) {
	opts = append([]collator.Option{
		collator.WithLogger(r.logger),
		collator.WithBuffer(r.cfg.Daemon.QueueSize),
	}, opts...)
	c := collator.New(opts...)
	f := feed.New(r.store, r.user(), c, feed.WithLogger(r.logger))
	return c, f
}

// loadFrame performs one synchronous read of every stream and returns the
// resulting dashboard frame.
func (r *runtime) loadFrame(ctx context.Context) (collator.Frame, error) {
	c := collator.New(collator.WithLogger(r.logger))
	apply := feed.DelivererFunc(func(_ context.Context, u collator.Update) error {
		c.Apply(u)
		return nil
	})
	f := feed.New(r.store, r.user(), apply, feed.WithLogger(r.logger))
	if err := f.Start(ctx); err != nil {
		return collator.Frame{}, err
	}
	frame, ok := c.Last()
	if !ok {
		return collator.Frame{}, errors.New("no dashboard frame was produced")
	}
	return frame, nil
}
