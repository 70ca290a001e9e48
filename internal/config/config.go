package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. CLINIC_DATABASE_HOST.
const EnvPrefix = "CLINIC"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Retention RetentionConfig `mapstructure:"retention"`
	Digest    DigestConfig    `mapstructure:"digest"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	TimeoutSeconds int      `mapstructure:"timeoutSeconds" split_words:"true"`
	RateLimitRPS   float64  `mapstructure:"rateLimitRPS" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"rateLimitBurst" split_words:"true"`
	AllowOrigins   []string `mapstructure:"allowOrigins" split_words:"true"`
}

func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"maxOpenConns" split_words:"true"`
	MaxIdleConns int    `mapstructure:"maxIdleConns" split_words:"true"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours" split_words:"true"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"poolSize" split_words:"true"`
	MinIdleConns int           `mapstructure:"minIdleConns" split_words:"true"`
	MaxRetries   int           `mapstructure:"maxRetries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retryBackoff" split_words:"true"`
	Channel      string        `mapstructure:"channel"`
}

type RetentionConfig struct {
	Days            int `mapstructure:"days"`
	IntervalMinutes int `mapstructure:"intervalMinutes" split_words:"true"`
}

type DigestConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	Hour    int        `mapstructure:"hour"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeoutSeconds", 30)
	v.SetDefault("server.rateLimitRPS", 50)
	v.SetDefault("server.rateLimitBurst", 100)
	v.SetDefault("server.allowOrigins", []string{"*"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("jwt.expiry_hours", 12)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.maxRetries", 3)
	v.SetDefault("redis.retryBackoff", 100*time.Millisecond)
	v.SetDefault("redis.channel", "clinic.events")
	v.SetDefault("retention.days", 365)
	v.SetDefault("retention.intervalMinutes", 60)
	v.SetDefault("digest.hour", 6)
	v.SetDefault("digest.smtp.port", 587)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.namespace", "clinic")
}

// LoadConfig reads config.yaml (or the file at path) and then applies
// CLINIC_* environment overrides. A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Retention.Days < 1 {
		return errors.New("retention.days must be positive")
	}
	return nil
}
