package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Directory.BaseURL != "https://all.api.radio-browser.info" {
		t.Errorf("unexpected base url %q", cfg.Directory.BaseURL)
	}
	if cfg.Directory.StationLimit != 1000 {
		t.Errorf("expected station limit 1000, got %d", cfg.Directory.StationLimit)
	}
	if !cfg.Directory.HideBroken {
		t.Error("expected hide_broken on by default")
	}
	if cfg.Player.Command != "mpv" {
		t.Errorf("expected mpv, got %q", cfg.Player.Command)
	}
	if !cfg.Player.KeepAlive {
		t.Error("expected keep_alive on by default")
	}
	if cfg.Player.Socket == "" {
		t.Error("expected a default socket path")
	}
	if cfg.Preferences.CountryCode != "" {
		t.Errorf("expected no country override, got %q", cfg.Preferences.CountryCode)
	}
}

func TestLoadConfigFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigFrom failed: %v", err)
	}
	if cfg.Directory.Timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Directory.Timeout)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected INFO, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigFrom_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
directory:
  base_url: https://de1.api.radio-browser.info
  station_limit: 200
  timeout: 5s
player:
  keep_alive: false
  args: ["--volume=50"]
preferences:
  country_code: PL
logging:
  level: debug
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadConfigFrom failed: %v", err)
	}

	if cfg.Directory.BaseURL != "https://de1.api.radio-browser.info" {
		t.Errorf("unexpected base url %q", cfg.Directory.BaseURL)
	}
	if cfg.Directory.StationLimit != 200 {
		t.Errorf("expected 200, got %d", cfg.Directory.StationLimit)
	}
	if cfg.Directory.Timeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.Directory.Timeout)
	}
	if cfg.Player.KeepAlive {
		t.Error("expected keep_alive false from file")
	}
	if len(cfg.Player.Args) != 1 || cfg.Player.Args[0] != "--volume=50" {
		t.Errorf("unexpected args %v", cfg.Player.Args)
	}
	if cfg.Player.Command != "mpv" {
		t.Errorf("expected default command to survive, got %q", cfg.Player.Command)
	}
	if cfg.Preferences.CountryCode != "PL" {
		t.Errorf("expected PL, got %q", cfg.Preferences.CountryCode)
	}
}

func TestLoadConfigFrom_EnvOverride(t *testing.T) {
	t.Setenv("RADIO_DIRECTORY_USER_AGENT", "env-agent")
	t.Setenv("RADIO_PLAYER_COMMAND", "/opt/mpv/bin/mpv")

	cfg, err := LoadConfigFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigFrom failed: %v", err)
	}
	if cfg.Directory.UserAgent != "env-agent" {
		t.Errorf("expected env user agent, got %q", cfg.Directory.UserAgent)
	}
	if cfg.Player.Command != "/opt/mpv/bin/mpv" {
		t.Errorf("expected env command, got %q", cfg.Player.Command)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range tests {
		if got := ParseLogLevel(in).String(); got != want {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandHome("~/radio.log")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "radio.log") {
		t.Errorf("unexpected expansion %q", got)
	}
	if got, _ := ExpandHome("/var/log/radio.log"); got != "/var/log/radio.log" {
		t.Errorf("absolute path changed to %q", got)
	}
}
