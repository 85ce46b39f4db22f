package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Port:            "8080",
		SQLiteDBPath:    filepath.Join(t.TempDir(), "debts.db"),
		BackupDir:       t.TempDir(),
		BackupInterval:  6 * time.Hour,
		BackupRetention: 10,
		LogLevel:        slog.LevelInfo,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "non-numeric port",
			mutate:  func(c *Config) { c.Port = "abc" },
			wantErr: true,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: true,
		},
		{
			name:    "empty db path",
			mutate:  func(c *Config) { c.SQLiteDBPath = "" },
			wantErr: true,
		},
		{
			name:    "backup interval too short",
			mutate:  func(c *Config) { c.BackupInterval = time.Second },
			wantErr: true,
		},
		{
			name:    "backup retention zero",
			mutate:  func(c *Config) { c.BackupRetention = 0 },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Port)
	}
	if cfg.BackupRetention != 10 {
		t.Errorf("default retention = %d, want 10", cfg.BackupRetention)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("default log level = %v, want info", cfg.LogLevel)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
