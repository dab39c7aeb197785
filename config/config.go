package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when the configuration file decodes but cannot drive a run.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the overall application configuration.
type Config struct {
	LogDirectory     string            `yaml:"log_directory"`
	ColonizedSystems []ColonizedSystem `yaml:"colonized_systems"`
	Journal          JournalConfig     `yaml:"journal"`
	Server           ServerConfig      `yaml:"server"`
	Database         DatabaseConfig    `yaml:"database"`
	Push             PushConfig        `yaml:"push"`
	WorkerPool       WorkerPoolConfig  `yaml:"worker_pool"`
	Logging          LoggingConfig     `yaml:"logging"`
}

// ColonizedSystem names a star system eligible for bulk cargo-drop deliveries.
// The keys match the journal's own field naming so an exported list can be pasted in.
type ColonizedSystem struct {
	SystemAddress int64  `yaml:"SystemAddress"`
	Name          string `yaml:"Name"`
}

// JournalConfig controls how journal files are discovered and scanned.
type JournalConfig struct {
	FilePattern         string        `yaml:"file_pattern"`
	CargoFile           string        `yaml:"cargo_file"`
	ScanEnabled         bool          `yaml:"scan_enabled"`
	ScanIntervalSeconds int           `yaml:"scan_interval_seconds"`
	ScanInterval        time.Duration `yaml:"-"`
	UploadDirectory     string        `yaml:"upload_directory"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	Debug                  bool   `yaml:"debug"`
}

// LoggingConfig selects the log level and output format ("console" or "json").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SystemSet is a lookup set of system addresses.
type SystemSet map[int64]struct{}

// Contains reports whether addr is in the set.
func (s SystemSet) Contains(addr int64) bool {
	_, ok := s[addr]
	return ok
}

// NewSystemSet builds a SystemSet from raw addresses.
func NewSystemSet(addrs ...int64) SystemSet {
	set := make(SystemSet, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	return set
}

// ColonizedSet returns the configured colonized systems as a lookup set.
func (c *Config) ColonizedSet() SystemSet {
	addrs := make([]int64, 0, len(c.ColonizedSystems))
	for _, sys := range c.ColonizedSystems {
		addrs = append(addrs, sys.SystemAddress)
	}
	return NewSystemSet(addrs...)
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config file %s", path)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Journal.FilePattern == "" {
		cfg.Journal.FilePattern = "Journal.*.log"
	}
	if cfg.Journal.CargoFile == "" {
		cfg.Journal.CargoFile = "Cargo.json"
	}
	if cfg.Journal.ScanIntervalSeconds <= 0 {
		cfg.Journal.ScanIntervalSeconds = 60
	}
	cfg.Journal.ScanInterval = time.Duration(cfg.Journal.ScanIntervalSeconds) * time.Second
	if cfg.Journal.UploadDirectory == "" {
		cfg.Journal.UploadDirectory = os.TempDir()
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "ledger.db"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 1
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 1
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Warn().Msg("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	if c.LogDirectory == "" {
		return errors.Wrap(ErrInvalid, "log_directory must be set to the folder holding Journal.*.log files")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return errors.Wrapf(ErrInvalid, "database.driver %q is not one of sqlite, postgres, mysql", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.Wrapf(ErrInvalid, "database.dsn must be set for driver %s", c.Database.Driver)
	}
	seen := make(map[int64]bool, len(c.ColonizedSystems))
	for _, sys := range c.ColonizedSystems {
		if sys.SystemAddress == 0 {
			return errors.Wrapf(ErrInvalid, "colonized system %q has no SystemAddress", sys.Name)
		}
		if seen[sys.SystemAddress] {
			log.Warn().Int64("system_address", sys.SystemAddress).Msg("colonized system listed twice")
		}
		seen[sys.SystemAddress] = true
	}
	return nil
}
