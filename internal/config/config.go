package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the ingestion service
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Database DatabaseConfig `mapstructure:"database"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type SourceConfig struct {
	URL         string        `mapstructure:"url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MinInterval time.Duration `mapstructure:"min_interval"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
	Bucket string `mapstructure:"bucket"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type IngestConfig struct {
	Schedule      string        `mapstructure:"schedule"`
	Timezone      string        `mapstructure:"timezone"`
	RunTimeout    time.Duration `mapstructure:"run_timeout"`
	FlushTrailing bool          `mapstructure:"flush_trailing"`
	IDCacheSize   int           `mapstructure:"id_cache_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from a YAML file. Values may reference
// environment variables ($VAR), which are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", "https://www.wien.gv.at/ma22-lgb/umweltgut/lumesakt-v2.csv")
	v.SetDefault("source.user_agent", "luftguete-ingest")
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.min_interval", "1m")

	v.SetDefault("aws.region", "eu-central-1")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("ingest.schedule", "*/30 * * * *")
	v.SetDefault("ingest.timezone", "Europe/Vienna")
	v.SetDefault("ingest.run_timeout", "2m")
	v.SetDefault("ingest.id_cache_size", 4096)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
