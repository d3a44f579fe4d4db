package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{
		DefaultProfile: "work",
		Profiles: map[string]Profile{
			"work": {
				BaseURL:        "https://bot.example.com",
				ReconnectDelay: 2 * time.Second,
				QuickReplies:   []string{"one moment"},
			},
		},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	p := loaded.Profile("work")
	if p.BaseURL != "https://bot.example.com" {
		t.Errorf("BaseURL = %q", p.BaseURL)
	}
	if p.ReconnectDelay != 2*time.Second {
		t.Errorf("ReconnectDelay = %v, want 2s", p.ReconnectDelay)
	}
	if !reflect.DeepEqual(p.QuickReplies, []string{"one moment"}) {
		t.Errorf("QuickReplies = %v", p.QuickReplies)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.DefaultProfile != "" || len(cfg.Profiles) != 0 {
		t.Errorf("LoadOrDefault() = %+v, want empty config", cfg)
	}
}

func TestLoadOrDefaultParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_profile = [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("LoadOrDefault() expected parse error")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestProfileDefaults(t *testing.T) {
	var cfg *Config
	p := cfg.Profile("anything")

	if p.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", p.BaseURL)
	}
	if p.Endpoints != DefaultEndpoints() {
		t.Errorf("Endpoints = %+v", p.Endpoints)
	}
	if p.ReconnectAttempts != 5 {
		t.Errorf("ReconnectAttempts = %d, want 5", p.ReconnectAttempts)
	}
	if p.VirtualizeAbove != 100 {
		t.Errorf("VirtualizeAbove = %d, want 100", p.VirtualizeAbove)
	}
	if p.RevealMin != 10 || p.RevealMax != 50 {
		t.Errorf("reveal range = %d..%d, want 10..50", p.RevealMin, p.RevealMax)
	}
	if p.RecordLimit != 5*time.Minute {
		t.Errorf("RecordLimit = %v", p.RecordLimit)
	}
	if len(p.QuickReplies) == 0 || len(p.RecorderCommand) == 0 || len(p.PlayerCommand) == 0 {
		t.Error("command and quick reply defaults missing")
	}
	if !p.NotifyEnabled() {
		t.Error("notifications should default to on")
	}
}

func TestRecordLimitIsCapped(t *testing.T) {
	cfg := &Config{Profiles: map[string]Profile{"main": {RecordLimit: time.Hour}}}
	if got := cfg.Profile("main").RecordLimit; got != DefaultRecordLimit {
		t.Errorf("RecordLimit = %v, want cap %v", got, DefaultRecordLimit)
	}
}

func TestNotifyDisabled(t *testing.T) {
	off := false
	cfg := &Config{Profiles: map[string]Profile{"main": {Notify: &off}}}
	if cfg.Profile("main").NotifyEnabled() {
		t.Error("NotifyEnabled() = true, want false")
	}
}

func TestDotEnvAndOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(EnvBaseURL+"=http://from-dotenv:9000\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvBaseURL, "")
	os.Unsetenv(EnvBaseURL)

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	p := ApplyEnv(Profile{BaseURL: "http://from-file"})
	if p.BaseURL != "http://from-dotenv:9000" {
		t.Errorf("BaseURL = %q, want value from .env", p.BaseURL)
	}

	t.Setenv(EnvBaseURL, "http://from-env")
	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if p := ApplyEnv(Profile{}); p.BaseURL != "http://from-env" {
		t.Errorf("BaseURL = %q, existing env must win over .env", p.BaseURL)
	}
}
