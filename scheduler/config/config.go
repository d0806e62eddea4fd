package config

import (
	"mutapa-lotto/config"
	"mutapa-lotto/database"
)

type Config struct {
	DB      config.DBConfig      `toml:"db"`
	Logger  config.LoggerConfig  `toml:"logger"`
	Metrics config.MetricsConfig `toml:"metrics"`
	VRF     config.VrfConfig     `toml:"vrf"`
	Ledger  config.LedgerConfig  `toml:"ledger"`
	Draws   DrawsConfig          `toml:"draws"`
	Winners WinnersConfig        `toml:"winners"`
	Admin   AdminConfig          `toml:"admin"`
}

type DrawsConfig struct {
	Enabled        bool           `toml:"enabled"`
	TimeoutSeconds int            `toml:"timeout_seconds"` // scheduler tick interval
	Timezone       string         `toml:"timezone"`
	Daily          DrawTypeConfig `toml:"daily"`
	Weekly         DrawTypeConfig `toml:"weekly"`
}

type DrawTypeConfig struct {
	Enabled     bool   `toml:"enabled"`
	TriggerTime string `toml:"trigger_time"` // "HH:MM" in the configured timezone
	// Days of the week the draw runs on, e.g. ["saturday"]. Empty means
	// every day.
	Weekdays       []string `toml:"weekdays"`
	DefaultJackpot uint64   `toml:"default_jackpot"` // In cents
}

type WinnersConfig struct {
	// JSON-RPC endpoint of the winner service. Empty disables the
	// handoff after draw settlement.
	URL           string `toml:"url" envconfig:"WINNERS_URL"`
	TimeoutMillis int    `toml:"timeout_millis"`
}

type AdminConfig struct {
	// Address of the internal trigger server. Empty disables it. Must
	// never be exposed publicly.
	Address string `toml:"address" envconfig:"ADMIN_ADDRESS"`
}

func newConfig() *Config {
	return &Config{
		Logger: config.NewDefaultLoggerConfig(),
		VRF:    config.NewDefaultVrfConfig(),
		Ledger: config.NewDefaultLedgerConfig(),
		Draws: DrawsConfig{
			Enabled:        true,
			TimeoutSeconds: 20,
			Timezone:       "Africa/Harare",
			Daily: DrawTypeConfig{
				Enabled:        true,
				TriggerTime:    "20:00",
				DefaultJackpot: 5_000_000,
			},
			Weekly: DrawTypeConfig{
				Enabled:        true,
				TriggerTime:    "20:30",
				Weekdays:       []string{"saturday"},
				DefaultJackpot: 25_000_000,
			},
		},
		Winners: WinnersConfig{
			TimeoutMillis: 10_000,
		},
	}
}

func (c DrawsConfig) TypeConfig(drawType database.DrawType) DrawTypeConfig {
	if drawType == database.DrawTypeWeekly {
		return c.Weekly
	}
	return c.Daily
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
