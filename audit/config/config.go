package config

import (
	"mutapa-lotto/config"
)

type Config struct {
	DB      config.DBConfig      `toml:"db"`
	Logger  config.LoggerConfig  `toml:"logger"`
	Metrics config.MetricsConfig `toml:"metrics"`
	Ledger  config.LedgerConfig  `toml:"ledger"`
	Audit   AuditConfig          `toml:"audit"`
}

type AuditConfig struct {
	// Address the public audit API listens on.
	Address string `toml:"address" envconfig:"AUDIT_ADDRESS"`
	// Number of completed draws returned by the blockchain status route.
	RecentDraws int `toml:"recent_draws"`
	// Number of per-draw ticket Merkle trees kept in memory. Trees of
	// completed draws never change, so cached entries cannot go stale.
	TreeCacheSize int `toml:"tree_cache_size"`
}

func newConfig() *Config {
	return &Config{
		Logger: config.NewDefaultLoggerConfig(),
		Ledger: config.NewDefaultLedgerConfig(),
		Audit: AuditConfig{
			Address:       "localhost:8500",
			RecentDraws:   10,
			TreeCacheSize: 100,
		},
	}
}

func (c Config) LoggerConfig() config.LoggerConfig {
	return c.Logger
}

func BuildConfig() (*Config, error) {
	cfg := newConfig()
	err := config.ParseConfigFile(cfg, config.ConfigFileName(), false)
	if err != nil {
		return nil, err
	}
	err = config.ParseConfigFile(cfg, config.LOCAL_CONFIG_FILE, true)
	if err != nil {
		return nil, err
	}
	err = config.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
