package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/tui"
	"github.com/Veraticus/edupay/internal/tui/themes"
	"github.com/Veraticus/edupay/internal/txview"
)

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse transactions interactively",
		Long: `Open the interactive transaction table.

Keys: j/k move, l/h page, L page size, s sort field, o sort order,
/ search, 1/2/3 status filters, c school filter, d date range, x clear,
[ and ] history, r refresh, enter details, ? help, q quit.

With --school the table shows one school, paged by the backend.`,
		RunE: runBrowse,
	}
	addQueryFlags(cmd)
	cmd.Flags().String("school", "", "browse a single school")
	cmd.Flags().String("theme", "", "color theme (default, catppuccin)")
	cmd.Flags().Bool("mouse", false, "enable mouse wheel scrolling")
	_ = viper.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))
	return cmd
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return err
	}

	state, err := queryStateFromFlags(cmd, a.cfg.DefaultLimit)
	if err != nil {
		return err
	}

	// Log lines would corrupt the screen.
	restore, err := redirectLogging(a.cfg.LogFile, a.cfg.LogLevel, a.cfg.LogFormat)
	if err != nil {
		return err
	}
	defer restore()

	mouse, _ := cmd.Flags().GetBool("mouse")
	opts := []tui.Option{
		tui.WithInitialState(state),
		tui.WithTheme(themes.ByName(viper.GetString("tui.theme"))),
		tui.WithTimeout(a.cfg.Timeout),
		tui.WithMouse(mouse),
	}

	var source tui.Source = a.controller()
	if schoolID, _ := cmd.Flags().GetString("school"); schoolID != "" {
		source = tui.SchoolSource(txview.NewSchoolController(a.client, nil), schoolID)
		opts = append(opts, tui.WithTitle(model.SchoolName(schoolID)))
	}

	return tui.Run(ctx, source, opts...)
}

// redirectLogging sends the global logger to path until restore is called.
func redirectLogging(path, level, format string) (func(), error) {
	lvl, err := common.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	previous := slog.Default()
	if err := common.SetupLoggerTo(f, lvl, format); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() {
		slog.SetDefault(previous)
		_ = f.Close()
	}, nil
}
