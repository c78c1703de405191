// Package cmd implements the kantong CLI commands.
package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/kantong/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := config.ConfigPath()
	if flagConfig != "" {
		path = flagConfig
	}
	fmt.Printf("  Config file: %s\n", path)
	if config.Exists() || flagConfig != "" {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    User:     %s\n", cfg.General.UserID)
	fmt.Printf("    Backend:  %s\n", cfg.General.Backend)
	switch cfg.General.Backend {
	case config.BackendSQLite:
		fmt.Printf("    Database: %s\n", cfg.General.DBPath)
	case config.BackendPostgres:
		fmt.Printf("    DSN:      %s\n", redactURL(cfg.General.PostgresDSN))
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval)
	fmt.Printf("    Watch:    %v (debounce %s)\n", cfg.Daemon.Watch, cfg.Daemon.Debounce)
	fmt.Printf("    Events:   %d\n", cfg.Daemon.EventsBuffer)
	fmt.Printf("    Queue:    %d\n", cfg.Daemon.QueueSize)
	fmt.Println()

	fmt.Println("  [AMQP]")
	if cfg.AMQP.URL != "" {
		fmt.Printf("    URL:      %s\n", redactURL(cfg.AMQP.URL))
		fmt.Printf("    Exchange: %s (routing %s.<user>)\n", cfg.AMQP.Exchange, cfg.AMQP.RoutingPrefix)
	} else {
		fmt.Println("    Change bus: not configured (polling only)")
	}
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s  Format: %s\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `kantong setup` to reconfigure.")
	return nil
}

// redactURL hides the password of a connection URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
