package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

var (
	GlobalConfigCallback ConfigCallback[GlobalConfig] = ConfigCallback[GlobalConfig]{}

	CONFIG_FILE       string = "config.toml"
	LOCAL_CONFIG_FILE string = "config.local.toml"
)

// GlobalConfig is implemented by the application configs of all binaries.
// Callbacks registered on GlobalConfigCallback receive it once the config
// of the running binary has been built.
type GlobalConfig interface {
	LoggerConfig() LoggerConfig
}

type DBConfig struct {
	Host       string `toml:"host" envconfig:"DB_HOST"`
	Port       int    `toml:"port" envconfig:"DB_PORT"`
	Database   string `toml:"database" envconfig:"DB_DATABASE"`
	Username   string `toml:"username" envconfig:"DB_USERNAME"`
	Password   string `toml:"password" envconfig:"DB_PASSWORD"`
	LogQueries bool   `toml:"log_queries"`
}

type LoggerConfig struct {
	Level       string `toml:"level"` // valid values are: DEBUG, INFO, WARN, ERROR, DPANIC, PANIC, FATAL (zap)
	File        string `toml:"file"`
	MaxFileSize int    `toml:"max_file_size"` // In megabytes
	Console     bool   `toml:"console"`
}

type MetricsConfig struct {
	PrometheusAddress string `toml:"prometheus_address" envconfig:"METRICS_PROMETHEUS_ADDRESS"`
}

func NewDefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:       "INFO",
		Console:     true,
		MaxFileSize: 10,
	}
}

// ConfigFileName returns the name of the config file of the running binary:
// the value of the CONFIG_FILE environment variable if set, the default
// name otherwise.
func ConfigFileName() string {
	if name, ok := os.LookupEnv("CONFIG_FILE"); ok {
		return name
	}
	return CONFIG_FILE
}

// ParseConfigFile decodes the TOML file with the given name into cfg.
// A missing file is an error unless allowMissing is set, in which case
// cfg is left untouched.
func ParseConfigFile(cfg interface{}, fileName string, allowMissing bool) error {
	content, err := os.ReadFile(fileName)
	if err != nil {
		if allowMissing && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error opening config file: %w", err)
	}

	_, err = toml.Decode(string(content), cfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

func ReadEnv(cfg interface{}) error {
	err := envconfig.Process("", cfg)
	if err != nil {
		return fmt.Errorf("error reading env config: %w", err)
	}
	return nil
}
