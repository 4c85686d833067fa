package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config stores runtime configuration for the playback core and its hosts.
type Config struct {
	Audio   AudioConfig
	Session SessionConfig
	Feed    FeedConfig
	Log     LogConfig

	// File is the config file that was loaded, if any.
	File string
}

type AudioConfig struct {
	PlayerCommand string
	AssetPath     string
	SoundsDir     string
	Volume        int
	StartupProbe  time.Duration
}

type SessionConfig struct {
	TickInterval time.Duration
}

type FeedConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

type fileConfig struct {
	Audio struct {
		PlayerCommand  string `toml:"player_command"`
		Asset          string `toml:"asset"`
		Volume         int    `toml:"volume"`
		StartupProbeMS int    `toml:"startup_probe_ms"`
	} `toml:"audio"`
	Session struct {
		TickIntervalMS int `toml:"tick_interval_ms"`
	} `toml:"session"`
	Feed struct {
		Addr string `toml:"addr"`
	} `toml:"feed"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Load resolves configuration from the optional config file, environment
// variables and defaults, in increasing order of precedence.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	dir := configDir(home)
	path := filepath.Join(dir, "config.toml")
	fc, loaded, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Audio: AudioConfig{
			PlayerCommand: envOrDefault("CALMSPACE_PLAYER_COMMAND", firstNonEmpty(fc.Audio.PlayerCommand, "ffplay")),
			AssetPath:     expandTilde(envOrDefault("CALMSPACE_AMBIENT_ASSET", fc.Audio.Asset), home),
			SoundsDir:     filepath.Join(dir, "sounds"),
			Volume:        envOrDefaultInt("CALMSPACE_VOLUME", positiveOr(fc.Audio.Volume, 100)),
			StartupProbe:  time.Duration(envOrDefaultInt("CALMSPACE_STARTUP_PROBE_MS", positiveOr(fc.Audio.StartupProbeMS, 250))) * time.Millisecond,
		},
		Session: SessionConfig{
			TickInterval: time.Duration(envOrDefaultInt("CALMSPACE_TICK_INTERVAL_MS", positiveOr(fc.Session.TickIntervalMS, 1000))) * time.Millisecond,
		},
		Feed: FeedConfig{
			Addr: envOrDefault("CALMSPACE_FEED_ADDR", fc.Feed.Addr),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envOrDefault("CALMSPACE_LOG_LEVEL", firstNonEmpty(fc.Log.Level, "info"))),
			Format: strings.ToLower(envOrDefault("CALMSPACE_LOG_FORMAT", firstNonEmpty(fc.Log.Format, "text"))),
		},
	}
	if loaded {
		cfg.File = path
	}

	if cfg.Audio.Volume <= 0 || cfg.Audio.Volume > 100 {
		cfg.Audio.Volume = 100
	}
	if cfg.Audio.StartupProbe <= 0 {
		cfg.Audio.StartupProbe = 250 * time.Millisecond
	}
	if cfg.Session.TickInterval <= 0 {
		cfg.Session.TickInterval = time.Second
	}

	return cfg, nil
}

func configDir(home string) string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "calmspace")
	}
	return filepath.Join(home, ".config", "calmspace")
}

func loadFile(path string) (fileConfig, bool, error) {
	var fc fileConfig
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, false, nil
		}
		return fc, false, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fc, false, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return fc, true, nil
}

func expandTilde(path string, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func positiveOr(value int, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
