package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/shiftline/internal/geometry"
)

const (
	defaultListen          = "127.0.0.1:8080"
	defaultDBPath          = "shiftline.db"
	defaultLogLevel        = "info"
	defaultTimezone        = "UTC"
	defaultMinutesPerPixel = 0.6
	defaultSnapGridPx      = 25
	defaultBaselineHour    = 9
	defaultViewEndHour     = 22
	defaultRefreshCron     = "0 0 * * *"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path" json:"db_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Timezone is the IANA zone day views are computed in (e.g. "America/Denver").
	Timezone string `yaml:"timezone" json:"timezone"`

	// MinutesPerPixel is the timeline scale shared by rendering and editing.
	MinutesPerPixel float64 `yaml:"minutes_per_pixel" json:"minutes_per_pixel"`

	SnapGridPx int  `yaml:"snap_grid_px" json:"snap_grid_px"`
	SnapToGrid bool `yaml:"snap_to_grid" json:"snap_to_grid"`

	// BaselineHour is the local hour at pixel zero; ViewEndHour is the right
	// edge of the timeline. Shifts cannot be resized past it.
	BaselineHour int `yaml:"baseline_hour" json:"baseline_hour"`
	ViewEndHour  int `yaml:"view_end_hour" json:"view_end_hour"`

	// RefreshCron is the schedule on which connected sessions are told the
	// day has rolled over.
	RefreshCron string `yaml:"refresh_cron" json:"refresh_cron"`
}

// Default returns an in-memory default configuration.
func Default() *Config {
	return &Config{
		Listen:          defaultListen,
		DBPath:          defaultDBPath,
		LogLevel:        defaultLogLevel,
		Timezone:        defaultTimezone,
		MinutesPerPixel: defaultMinutesPerPixel,
		SnapGridPx:      defaultSnapGridPx,
		SnapToGrid:      true,
		BaselineHour:    defaultBaselineHour,
		ViewEndHour:     defaultViewEndHour,
		RefreshCron:     defaultRefreshCron,
	}
}

// Normalize fills in missing or out-of-range values so partially-filled
// files still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.DBPath == "" {
		c.DBPath = defaultDBPath
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.MinutesPerPixel <= 0 {
		c.MinutesPerPixel = defaultMinutesPerPixel
	}
	if c.SnapGridPx <= 0 {
		c.SnapGridPx = defaultSnapGridPx
	}
	if c.BaselineHour < 0 || c.BaselineHour > 23 {
		c.BaselineHour = defaultBaselineHour
	}
	if c.ViewEndHour <= c.BaselineHour || c.ViewEndHour > 24 {
		c.ViewEndHour = defaultViewEndHour
		if c.ViewEndHour <= c.BaselineHour {
			c.ViewEndHour = 24
		}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
}

// ApplyEnv overrides file values with SHIFTLINE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SHIFTLINE_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SHIFTLINE_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SHIFTLINE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SHIFTLINE_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	c.Normalize()
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Mapper returns the coordinate mapper for the configured scale.
func (c *Config) Mapper() geometry.Mapper {
	return geometry.Mapper{
		MinutesPerPixel: c.MinutesPerPixel,
		GridPx:          c.SnapGridPx,
		SnapToGrid:      c.SnapToGrid,
		BaselineHour:    c.BaselineHour,
		EndHour:         c.ViewEndHour,
	}
}

// Load reads configuration from the YAML file at path. On first run the
// file does not exist; a default config is written with 0600 perms and
// returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Start from defaults so keys absent from the file keep their defaults,
	// snap_to_grid included.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename, leaving the
// file with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".shiftline-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
