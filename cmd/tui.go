package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/kantong/internal/collator"
	"github.com/theirongolddev/kantong/internal/config"
	applog "github.com/theirongolddev/kantong/internal/log"
	"github.com/theirongolddev/kantong/internal/tui"
	"github.com/theirongolddev/kantong/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Logs would tear the alt screen; send them to a file instead.
	logFile, err := openTUILog()
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	logger := applog.New(applog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logFile})

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	rt, err := openRuntimeWith(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	sink := tui.NewSink()
	c, f := rt.newSession(collator.WithSink(sink))

	// A manual reload republishes every stream so the frame time moves
	// even when nothing changed.
	reload := func(ctx context.Context) error {
		f.Forget()
		return f.Refresh(ctx)
	}

	app := tui.NewApp(tui.Options{
		Sink:    sink,
		Ledger:  rt.ledger,
		Refresh: func(ctx context.Context) error { return f.Refresh(ctx) },
		Reload:  reload,
		User:    cfg.General.UserID,
		Backend: cfg.General.Backend,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := runSession(ctx, rt, c, f, logger)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		p.Send(tui.SessionEndedMsg{Err: err})
	}()

	_, runErr := p.Run()
	cancel()
	<-done

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

func openTUILog() (*os.File, error) {
	path := filepath.Join(config.DataDir(), "kantong-tui.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	//nolint:gosec // log path lives under the user's data directory
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
}
