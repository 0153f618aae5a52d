package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes from either a duration string ("5s") or a bare number
// of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the optional YAML configuration the command-line tools read.
// Everything has a default; a missing file is not an error.
type Config struct {
	Server     string `yaml:"server"`
	User       string `yaml:"user"`
	Encryption string `yaml:"encryption"`

	CachePath string `yaml:"cache_path"`
	CacheSize int    `yaml:"cache_size"`

	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
	LogMaxSize int64  `yaml:"log_max_size"`

	DiscoveryTimeout Duration `yaml:"discovery_timeout"`
	SNMPCommunity    string   `yaml:"snmp_community"`
}

func defaults() Config {
	return Config{
		CachePath:        defaultCachePath(),
		CacheSize:        32,
		LogFile:          "stderr",
		LogLevel:         "warn",
		LogMaxSize:       1 << 20,
		DiscoveryTimeout: Duration(2 * time.Second),
		SNMPCommunity:    "public",
	}
}

// Load reads the config file at path, or the default location when path is
// empty. Unset fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaults(), err
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 32
	}
	if cfg.DiscoveryTimeout <= 0 {
		cfg.DiscoveryTimeout = Duration(2 * time.Second)
	}
	return cfg, nil
}

// DefaultPath is ~/.config/cupsdest/config.yaml, or the CUPSDEST_CONFIG
// override.
func DefaultPath() string {
	if v := strings.TrimSpace(os.Getenv("CUPSDEST_CONFIG")); v != "" {
		return v
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "cupsdest", "config.yaml")
}

func defaultCachePath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return "cupsdest.db"
	}
	return filepath.Join(base, "cupsdest", "dest.db")
}
