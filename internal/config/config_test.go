package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.CacheSize != 32 || cfg.LogLevel != "warn" || cfg.DiscoveryTimeout.Std() != 2*time.Second {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.SNMPCommunity != "public" {
		t.Fatalf("snmp community default missing: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `server: cups.example.com:8631
user: alice
log_level: debug
cache_size: 8
discovery_timeout: 5s
snmp_community: internal
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != "cups.example.com:8631" || cfg.User != "alice" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.CacheSize != 8 || cfg.DiscoveryTimeout.Std() != 5*time.Second {
		t.Fatalf("numeric overrides not applied: %+v", cfg)
	}
	// Untouched fields keep their defaults.
	if cfg.CachePath == "" || cfg.LogMaxSize != 1<<20 {
		t.Fatalf("defaults lost on partial config: %+v", cfg)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a yaml error")
	}
}

func TestDefaultPathHonorsOverride(t *testing.T) {
	t.Setenv("CUPSDEST_CONFIG", "/tmp/custom.yaml")
	if got := DefaultPath(); got != "/tmp/custom.yaml" {
		t.Fatalf("got %q", got)
	}
}
