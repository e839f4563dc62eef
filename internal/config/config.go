package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Mail      MailConfig      `mapstructure:"mail"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Env       string          `mapstructure:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// RateLimitConfig holds rate limiter configuration.
// Strategy picks how a client identity is derived ("session" or "email"),
// Backend picks where cooldown state lives ("memory" or "redis").
type RateLimitConfig struct {
	Strategy             string `mapstructure:"strategy"`
	Backend              string `mapstructure:"backend"`
	RedisURL             string `mapstructure:"redis_url"`
	CooldownSeconds      int    `mapstructure:"cooldown_seconds"`
	EmailCooldownMinutes int    `mapstructure:"email_cooldown_minutes"`
	CookieName           string `mapstructure:"cookie_name"`
	SessionMaxAgeDays    int    `mapstructure:"session_max_age_days"`
}

// MailConfig holds Gmail API configuration for outbound notifications
type MailConfig struct {
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	RefreshToken  string        `mapstructure:"refresh_token"`
	UserEmail     string        `mapstructure:"user_email"`
	EmailTo       string        `mapstructure:"email_to"`
	EmailFrom     string        `mapstructure:"email_from"`
	NotifyTimeout time.Duration `mapstructure:"notify_timeout"`
}

// AdminConfig holds admin API configuration
type AdminConfig struct {
	Token string `mapstructure:"token"`
}

// SchedulerConfig holds maintenance scheduler configuration
type SchedulerConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
	RetentionDays   int `mapstructure:"retention_days"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.request_timeout", "10s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("rate_limit.strategy", "session")
	viper.SetDefault("rate_limit.backend", "memory")
	viper.SetDefault("rate_limit.cooldown_seconds", 60)
	viper.SetDefault("rate_limit.email_cooldown_minutes", 30)
	viper.SetDefault("rate_limit.cookie_name", "session_id")
	viper.SetDefault("rate_limit.session_max_age_days", 7)

	viper.SetDefault("mail.notify_timeout", "15s")

	viper.SetDefault("scheduler.interval_minutes", 5)
	viper.SetDefault("scheduler.retention_days", 90)

	viper.SetDefault("environment", "development")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.request_timeout", "REQUEST_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Rate limiter
	viper.BindEnv("rate_limit.strategy", "RATE_LIMIT_STRATEGY")
	viper.BindEnv("rate_limit.backend", "RATE_LIMIT_BACKEND")
	viper.BindEnv("rate_limit.redis_url", "REDIS_URL")
	viper.BindEnv("rate_limit.cooldown_seconds", "RATE_LIMIT_COOLDOWN_SECONDS")
	viper.BindEnv("rate_limit.email_cooldown_minutes", "RATE_LIMIT_EMAIL_COOLDOWN_MINUTES")
	viper.BindEnv("rate_limit.cookie_name", "SESSION_COOKIE_NAME")
	viper.BindEnv("rate_limit.session_max_age_days", "SESSION_MAX_AGE_DAYS")

	// Mail
	viper.BindEnv("mail.client_id", "GMAIL_CLIENT_ID")
	viper.BindEnv("mail.client_secret", "GMAIL_CLIENT_SECRET")
	viper.BindEnv("mail.refresh_token", "GMAIL_REFRESH_TOKEN")
	viper.BindEnv("mail.user_email", "GMAIL_USER_EMAIL")
	viper.BindEnv("mail.email_to", "EMAIL_TO")
	viper.BindEnv("mail.email_from", "EMAIL_FROM")
	viper.BindEnv("mail.notify_timeout", "NOTIFY_TIMEOUT")

	// Admin
	viper.BindEnv("admin.token", "ADMIN_TOKEN")

	// Scheduler
	viper.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
	viper.BindEnv("scheduler.retention_days", "CONTACT_RETENTION_DAYS")

	viper.BindEnv("environment", "ENVIRONMENT")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Cooldown returns the cooldown window for the configured identity strategy
func (c *RateLimitConfig) Cooldown() time.Duration {
	if c.Strategy == "email" {
		return time.Duration(c.EmailCooldownMinutes) * time.Minute
	}
	return time.Duration(c.CooldownSeconds) * time.Second
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	switch c.RateLimit.Strategy {
	case "session", "email":
	default:
		return fmt.Errorf("rate limit strategy must be \"session\" or \"email\", got %q", c.RateLimit.Strategy)
	}

	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.RateLimit.RedisURL == "" {
			return fmt.Errorf("redis_url is required when rate limit backend is \"redis\"")
		}
	default:
		return fmt.Errorf("rate limit backend must be \"memory\" or \"redis\", got %q", c.RateLimit.Backend)
	}

	if c.RateLimit.CooldownSeconds <= 0 {
		return fmt.Errorf("rate limit cooldown must be greater than 0")
	}

	if c.RateLimit.EmailCooldownMinutes <= 0 {
		return fmt.Errorf("rate limit email cooldown must be greater than 0")
	}

	if c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	return nil
}
