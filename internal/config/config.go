package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Email     EmailConfig     `mapstructure:"email"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig holds session and bootstrap admin configuration. The bootstrap
// admin is created on first start so the dashboard is never locked out.
type AuthConfig struct {
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	BootstrapEmail    string        `mapstructure:"bootstrap_email"`
	BootstrapName     string        `mapstructure:"bootstrap_name"`
	BootstrapPassword string        `mapstructure:"bootstrap_password"`
}

// StorageConfig holds document storage configuration
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
}

// EmailConfig holds SMTP configuration. An empty host disables email
// delivery entirely.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// SchedulerConfig holds the recurring report schedule. An empty cron spec
// disables scheduled reports.
type SchedulerConfig struct {
	Cron          string   `mapstructure:"cron"`
	Period        string   `mapstructure:"period"`
	Recipient     string   `mapstructure:"recipient"`
	Formats       []string `mapstructure:"formats"`
	IncludePrices bool     `mapstructure:"include_prices"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. A missing
// config file is not an error; defaults and environment variables cover it.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configPath); !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/workdesk.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Auth defaults
	viper.SetDefault("auth.session_ttl", 72*time.Hour)
	viper.SetDefault("auth.bootstrap_name", "Administrator")

	// Storage defaults
	viper.SetDefault("storage.upload_dir", "data/uploads")

	// Email defaults
	viper.SetDefault("email.port", 587)

	// Scheduler defaults
	viper.SetDefault("scheduler.period", "weekly")
	viper.SetDefault("scheduler.formats", []string{"pdf", "xlsx"})
	viper.SetDefault("scheduler.include_prices", true)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("auth.bootstrap_email", "ADMIN_EMAIL")
	viper.BindEnv("auth.bootstrap_password", "ADMIN_PASSWORD")
	viper.BindEnv("email.username", "SMTP_USERNAME")
	viper.BindEnv("email.password", "SMTP_PASSWORD")
	viper.BindEnv("email.host", "SMTP_HOST")
	viper.BindEnv("email.from", "SMTP_FROM")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}

	// Email delivery is optional, but when enabled it needs a sender
	if c.Email.Host != "" && c.Email.From == "" {
		return fmt.Errorf("email.from is required when email.host is set")
	}

	// A report schedule without a destination can never deliver
	if c.Scheduler.Cron != "" {
		if c.Scheduler.Recipient == "" {
			return fmt.Errorf("scheduler.recipient is required when scheduler.cron is set")
		}
		if c.Email.Host == "" {
			return fmt.Errorf("email.host is required when scheduler.cron is set")
		}
	}

	// The bootstrap admin needs a full credential pair
	if c.Auth.BootstrapEmail != "" && c.Auth.BootstrapPassword == "" {
		return fmt.Errorf("auth.bootstrap_password is required when auth.bootstrap_email is set")
	}

	return nil
}
