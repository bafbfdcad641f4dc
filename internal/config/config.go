package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	MaxRows   int    `mapstructure:"max_rows"`
	Timezone  string `mapstructure:"timezone"`
	WorkDir   string `mapstructure:"work_dir"`
	StateFile string `mapstructure:"state_file"`

	CSV struct {
		QuoteAll bool `mapstructure:"quote_all"`
	} `mapstructure:"csv"`

	Load struct {
		Parallel int `mapstructure:"parallel"`
	} `mapstructure:"load"`

	Server struct {
		Addr        string `mapstructure:"addr"`
		MaxUploadMB int64  `mapstructure:"max_upload_mb"`
	} `mapstructure:"server"`

	Log struct {
		Format string `mapstructure:"format"`
		Level  string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// SetDefaults registers every key with its default so env overrides and
// Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("max_rows", 2000)
	v.SetDefault("timezone", "")
	v.SetDefault("work_dir", filepath.Join(os.TempDir(), "syslens"))
	v.SetDefault("state_file", ".syslens-state.json")
	v.SetDefault("csv.quote_all", false)
	v.SetDefault("load.parallel", 4)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 256)
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Load.Parallel < 1 {
		cfg.Load.Parallel = 1
	}
	if cfg.Server.MaxUploadMB < 1 {
		return Config{}, fmt.Errorf("server.max_upload_mb must be positive, got %d", cfg.Server.MaxUploadMB)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return cfg, nil
}

// Logger builds the process logger described by the log section. It writes to stderr
// so stdout stays free for exports.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
