package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Task     TaskConfig     `mapstructure:"task"`
	Baz      BazConfig      `mapstructure:"baz"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend: "postgres" or "sqlite".
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a PostgreSQL connection string, or a file path for sqlite.
	URL          string `mapstructure:"url"            validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TaskConfig controls the background task runner.
type TaskConfig struct {
	// Backend selects where task state is kept: "database" or "memory".
	Backend     string `mapstructure:"backend"      validate:"required,oneof=database memory"`
	WorkerCount int    `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int    `mapstructure:"queue_size"   validate:"required,gt=0"`
	// MutationDelay is the artificial delay applied by each thing mutation.
	MutationDelay          time.Duration `mapstructure:"mutation_delay"            validate:"gte=0"`
	StuckTaskAge           time.Duration `mapstructure:"stuck_task_age"            validate:"gte=0"`
	StuckTaskCheckInterval time.Duration `mapstructure:"stuck_task_check_interval" validate:"gte=0"`
}

// BazConfig configures the client for the remote baz service.
type BazConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Param      string        `mapstructure:"param"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"gte=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0"`
}

// LogConfig configures optional file output for the application log.
// When File is empty, logs go to stdout only.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups"  validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}
