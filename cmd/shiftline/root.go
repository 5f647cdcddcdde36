package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/shiftline/internal/config"
	"github.com/dukerupert/shiftline/internal/database"
	"github.com/dukerupert/shiftline/internal/logging"
)

// app is what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	loc    *time.Location
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	var configPath string
	a := &app{}

	cmd := &cobra.Command{
		Use:           "shiftline",
		Short:         "Shift timeline server and scheduling tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.ApplyEnv()

			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.loc = loc
			a.logger = logging.Setup(cfg.LogLevel, cmd.ErrOrStderr())
			return nil
		},
	}

	defaultConfig := os.Getenv("SHIFTLINE_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "shiftline.yaml"
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "path to the YAML config file (created on first run)")

	serve := newServeCmd(a)
	cmd.AddCommand(serve, newResolveCmd(a), newTagDayCmd(a))
	cmd.RunE = serve.RunE
	return cmd
}

func (a *app) openDB() (*sql.DB, error) {
	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// parseDay reads a YYYY-MM-DD flag in the configured zone; empty is today.
func (a *app) parseDay(s string) (time.Time, error) {
	if s == "" {
		y, m, d := time.Now().In(a.loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, a.loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", s, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return day, nil
}
