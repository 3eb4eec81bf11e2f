package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config holds all application settings
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	Quiz     QuizConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: Redis operating mode ("single", "sentinel", "cluster"). Default "single".
	Mode string `mapstructure:"mode"`

	// Addrs: list of Redis addresses (host:port), used by all modes.
	// For 'single', the first address wins when both Addrs and Addr are set.
	Addrs []string `mapstructure:"addrs"`

	// Addr: alternative single-mode address (backwards compatibility).
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Redis master name (sentinel mode only)
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: reconnect attempts (-1 = unlimited). Default 0 (no retries).
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff / MaxRetryBackoff in milliseconds.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig holds settings for validating identity-provider tokens
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// EmailConfig holds result-notification email settings.
// Disabled by default; when enabled, emails are sent via Resend.
type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// QuizConfig holds attempt-engine policy defaults
type QuizConfig struct {
	// LeaderboardSize: number of entries served by the leaderboard endpoint.
	LeaderboardSize int `mapstructure:"leaderboard_size"`
	// LeaderboardCacheTTLSec: redis TTL for cached leaderboard/statistics reads.
	LeaderboardCacheTTLSec int `mapstructure:"leaderboard_cache_ttl_sec"`
	// ExpirySweepIntervalSec: how often the background sweep times out overdue attempts.
	ExpirySweepIntervalSec int `mapstructure:"expiry_sweep_interval_sec"`
	// ExpirySweepBatchSize: max attempts finalized per sweep run.
	ExpirySweepBatchSize int `mapstructure:"expiry_sweep_batch_size"`
}

// PostgresConnectionString builds the PostgreSQL connection string
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads the configuration from a file plus environment overrides
func Load(configPath string) (*Config, error) {
	vip := viper.New() // separate Viper instance, no global state

	// Defaults for the quiz policy knobs
	vip.SetDefault("quiz.leaderboard_size", 10)
	vip.SetDefault("quiz.leaderboard_cache_ttl_sec", 60)
	vip.SetDefault("quiz.expiry_sweep_interval_sec", 60)
	vip.SetDefault("quiz.expiry_sweep_batch_size", 100)
	vip.SetDefault("jwt.expirationHrs", 24)

	// Explicit environment bindings
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("email.enabled", "EMAIL_ENABLED")
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("server.port", "SERVER_PORT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, relying on environment variables/defaults.", configPath)
			} else {
				log.Printf("Warning: could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Loaded configuration ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Email Notifications Enabled: %t", cfg.Email.Enabled)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("----------------------------")
	}

	// Required values
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Email.Enabled && (cfg.Email.ResendAPIKey == "" || cfg.Email.From == "") {
		return nil, fmt.Errorf("email notifications are enabled but RESEND_API_KEY or EMAIL_FROM is missing")
	}

	return &cfg, nil
}
