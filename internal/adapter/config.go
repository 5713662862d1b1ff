package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Directory   DirectoryConfig   `mapstructure:"directory"`
	Player      PlayerConfig      `mapstructure:"player"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// DirectoryConfig holds station directory settings
type DirectoryConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	StationLimit int           `mapstructure:"station_limit"` // Max stations per country request
	HideBroken   bool          `mapstructure:"hide_broken"`   // Ask the directory to drop stations failing its checks
}

// PlayerConfig holds the out-of-process player configuration
type PlayerConfig struct {
	Command        string        `mapstructure:"command"`
	Args           []string      `mapstructure:"args"`
	Socket         string        `mapstructure:"socket"`     // mpv IPC socket path
	KeepAlive      bool          `mapstructure:"keep_alive"` // Keep playing after the UI exits
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// PreferencesConfig holds user preferences
type PreferencesConfig struct {
	CountryCode string `mapstructure:"country_code"` // Startup override, not persisted
	StorePath   string `mapstructure:"store_path"`   // bbolt file, empty for memory-only
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Directory: DirectoryConfig{
			BaseURL:      "https://all.api.radio-browser.info",
			UserAgent:    "praeterii.radio",
			Timeout:      30 * time.Second,
			StationLimit: 1000,
			HideBroken:   true,
		},
		Player: PlayerConfig{
			Command:        "mpv",
			Args:           []string{},
			Socket:         defaultSocketPath(),
			KeepAlive:      true,
			ConnectTimeout: 10 * time.Second,
		},
		Preferences: PreferencesConfig{
			StorePath: filepath.Join(defaultDataPath(), "radio.db"),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "radio.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "radio")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "radio")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "radio")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "radio")
	}
}

// defaultSocketPath prefers XDG_RUNTIME_DIR so the socket is private to the user
func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "radio-mpv.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("radio-mpv-%d.sock", os.Getuid()))
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(defaultConfigPath(), ".")
}

// LoadConfigFrom loads config.yaml from the first matching search path,
// applying RADIO_* environment overrides on top of the defaults.
func LoadConfigFrom(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable overrides (RADIO_DIRECTORY_BASE_URL, ...)
	v.SetEnvPrefix("RADIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can see it during Unmarshal
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("directory.base_url", cfg.Directory.BaseURL)
	v.SetDefault("directory.user_agent", cfg.Directory.UserAgent)
	v.SetDefault("directory.timeout", cfg.Directory.Timeout)
	v.SetDefault("directory.station_limit", cfg.Directory.StationLimit)
	v.SetDefault("directory.hide_broken", cfg.Directory.HideBroken)

	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("player.socket", cfg.Player.Socket)
	v.SetDefault("player.keep_alive", cfg.Player.KeepAlive)
	v.SetDefault("player.connect_timeout", cfg.Player.ConnectTimeout)

	v.SetDefault("preferences.country_code", cfg.Preferences.CountryCode)
	v.SetDefault("preferences.store_path", cfg.Preferences.StorePath)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}
