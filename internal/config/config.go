package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Auth       AuthConfig
	Postgres   PostgresConfig   `validate:"required"`
	ClickHouse ClickHouseConfig `validate:"required"`
	Kafka      KafkaConfig
	Cache      CacheConfig
	Notifier   NotifierConfig
	Activity   ActivityConfig
	Logging    LoggingConfig `validate:"required"`
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

// AuthConfig configures how the already-verified identity is read from
// incoming requests. Token issuance and signature verification happen
// upstream; TrustedHeaders switches between gateway headers and bare
// JWT claim extraction.
type AuthConfig struct {
	TrustedHeaders bool
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ClickHouseConfig struct {
	Address  string
	TLS      bool
	Username string
	Password string
	Database string
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	ConsumerGroup string
	ClientID      string
	TLS           bool
}

type CacheConfig struct {
	Enabled bool
	// PolicyTTL bounds how long a resolved permission map may be served
	// without a fresh read from the store.
	PolicyTTL time.Duration
}

type NotifierConfig struct {
	// TopicPrefix is prepended to every room topic, e.g. records.re.property
	TopicPrefix string
}

type ActivityConfig struct {
	// RetentionDays is the horizon of the hard-delete sweep; 0 disables it
	RetentionDays int
	// SweepSchedule is a cron expression for the retention sweep
	SweepSchedule string
	// DedupeWindow bounds operation-key deduplication of ledger appends
	DedupeWindow time.Duration
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/softxic")

	// Set up environment variables support
	v.SetEnvPrefix("SOFTXIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("auth.trustedheaders", true)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.policyttl", 5*time.Minute)
	v.SetDefault("notifier.topicprefix", "records")
	v.SetDefault("activity.retentiondays", 365)
	v.SetDefault("activity.sweepschedule", "0 3 * * *")
	v.SetDefault("activity.dedupewindow", 10*time.Minute)
	v.SetDefault("postgres.sslmode", "disable")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests. Useful for running scripts or other non-web applications.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true, PolicyTTL: 5 * time.Minute},
		Notifier:   NotifierConfig{TopicPrefix: "records"},
		Activity: ActivityConfig{
			RetentionDays: 365,
			SweepSchedule: "0 3 * * *",
			DedupeWindow:  10 * time.Minute,
		},
	}
}

func (c ClickHouseConfig) GetClientOptions() *clickhouse.Options {
	options := &clickhouse.Options{
		Addr: []string{c.Address},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	}
	if c.TLS {
		options.TLS = &tls.Config{}
	}
	return options
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
