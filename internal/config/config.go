package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/undertow/internal/track"
)

const appName = "undertow"

type Config struct {
	// Remote music pod (required)
	Pod PodConfig `koanf:"pod"`

	// Playback behavior
	Playback PlaybackConfig `koanf:"playback"`

	// Stream cache and state database locations
	Cache CacheConfig `koanf:"cache"`

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	Log   LogConfig   `koanf:"log"`
	Mpris MprisConfig `koanf:"mpris"`
}

// PodConfig identifies the remote server.
type PodConfig struct {
	URL   string `koanf:"url"`   // e.g., "https://music.example.org"
	Token string `koanf:"token"` // bearer token
}

// PlaybackConfig holds controller tuning.
type PlaybackConfig struct {
	Quality                string  `koanf:"quality"`                  // "max-bitrate" or "min-bitrate" (default: max)
	PauseRewindSeconds     int     `koanf:"pause_rewind_seconds"`     // rewound on pause (default: 0)
	DuckVolume             float64 `koanf:"duck_volume"`              // 0..1 (default: 0.2)
	PreviousRestartSeconds int     `koanf:"previous_restart_seconds"` // (default: 5)
}

// CacheConfig holds on-disk locations.
type CacheConfig struct {
	Dir    string `koanf:"dir"`     // stream cache (default: $XDG_CACHE_HOME/undertow/streams)
	DBPath string `koanf:"db_path"` // state database (default: $XDG_DATA_HOME/undertow/undertow.db)
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"` // zerolog level name (default: info)
}

// MprisConfig holds media-controls configuration.
type MprisConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// ErrNoPod is returned by Validate when the pod is not configured.
var ErrNoPod = errors.New("pod url is not configured")

// Load reads the configuration. A non-empty path replaces the default
// search locations.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	configPaths := getConfigPaths()
	if path != "" {
		configPaths = []string{expandPath(path)}
	}

	// Last wins
	for _, p := range configPaths {
		if _, err := os.Stat(p); err != nil {
			if path != "" {
				return nil, fmt.Errorf("config file: %w", err)
			}
			continue
		}
		if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize pod URL (remove trailing slash)
	cfg.Pod.URL = strings.TrimSuffix(cfg.Pod.URL, "/")

	cfg.Cache.Dir = expandPath(cfg.Cache.Dir)
	cfg.Cache.DBPath = expandPath(cfg.Cache.DBPath)

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/undertow/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Validate reports configuration the daemon cannot start without.
func (c *Config) Validate() error {
	if c.Pod.URL == "" {
		return ErrNoPod
	}
	return nil
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != "" && c.Lastfm.SessionKey != ""
}

// MprisEnabled reports whether the media-controls surface is exported.
func (c *Config) MprisEnabled() bool {
	return c.Mpris.Enabled == nil || *c.Mpris.Enabled
}

// Playback is PlaybackConfig with defaults applied and units resolved.
type Playback struct {
	Quality         track.Quality
	PauseRewind     time.Duration
	DuckVolume      float64
	PreviousRestart time.Duration
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() Playback {
	cfg := c.Playback

	if cfg.PauseRewindSeconds < 0 {
		cfg.PauseRewindSeconds = 0
	}
	if cfg.DuckVolume <= 0 || cfg.DuckVolume > 1 {
		cfg.DuckVolume = 0.2
	}
	if cfg.PreviousRestartSeconds <= 0 {
		cfg.PreviousRestartSeconds = 5
	}

	return Playback{
		Quality:         track.ParseQuality(cfg.Quality),
		PauseRewind:     time.Duration(cfg.PauseRewindSeconds) * time.Second,
		DuckVolume:      cfg.DuckVolume,
		PreviousRestart: time.Duration(cfg.PreviousRestartSeconds) * time.Second,
	}
}

// GetCacheDir returns the stream cache directory.
func (c *Config) GetCacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(xdg.CacheHome, appName, "streams")
}

// GetLogLevel returns the configured level name, "info" when unset.
func (c *Config) GetLogLevel() string {
	if c.Log.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Log.Level)
}
