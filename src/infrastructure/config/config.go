package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go-campaign-dispatcher/src/infrastructure/utils"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port  string
	GoEnv string
}

type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type WhatsAppConfig struct {
	Token              string
	PhoneNumberID      string
	BusinessAccountID  string
	APIBaseURL         string
	Timeout            time.Duration
	WebhookVerifyToken string
	DefaultTemplate    string
	DefaultLanguage    string
}

type DispatchConfig struct {
	DefaultMaxPerSecond   int
	DefaultMaxConcurrency int
	RetryMaxAttempts      int
	RetryBase             time.Duration
	RetryJitter           bool
}

type BreakerConfig struct {
	Enabled     bool
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

type RetentionConfig struct {
	Enabled          bool
	Schedule         string
	DeliveryEventTTL time.Duration
}

type AuthConfig struct {
	Enabled      bool
	AccessSecret string
}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	WhatsApp  WhatsAppConfig
	Dispatch  DispatchConfig
	Breaker   BreakerConfig
	Retention RetentionConfig
	Auth      AuthConfig
	SeedFile  string
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:  utils.GetEnv("SERVER_PORT", utils.GetEnv("PORT", "8080")),
			GoEnv: utils.GetEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres")),
			URL:      utils.GetEnv("DATABASE_URL", ""),
			Host:     utils.GetEnv("DB_HOST", ""),
			Port:     utils.GetEnv("DB_PORT", ""),
			User:     utils.GetEnv("DB_USER", ""),
			Password: utils.GetEnv("DB_PASSWORD", ""),
			DBName:   utils.GetEnv("DB_NAME", ""),
			SSLMode:  utils.GetEnv("DB_SSLMODE", "disable"),
		},
		WhatsApp: WhatsAppConfig{
			Token:              utils.GetEnv("WHATSAPP_TOKEN", ""),
			PhoneNumberID:      utils.GetEnv("PHONE_NUMBER_ID", ""),
			BusinessAccountID:  utils.GetEnv("BUSINESS_ACCOUNT_ID", ""),
			APIBaseURL:         strings.TrimRight(utils.GetEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v22.0"), "/"),
			Timeout:            utils.GetEnvDuration("WHATSAPP_TIMEOUT", 15*time.Second),
			WebhookVerifyToken: utils.GetEnv("WEBHOOK_VERIFY_TOKEN", ""),
			DefaultTemplate:    utils.GetEnv("DEFAULT_TEMPLATE_NAME", "hello_world"),
			DefaultLanguage:    utils.GetEnv("DEFAULT_TEMPLATE_LANGUAGE", "en_US"),
		},
		Dispatch: DispatchConfig{
			DefaultMaxPerSecond:   utils.GetEnvInt("SEND_MAX_PER_SECOND", 80),
			DefaultMaxConcurrency: utils.GetEnvInt("SEND_CONCURRENCY", 15),
			RetryMaxAttempts:      utils.GetEnvInt("RETRY_MAX_ATTEMPTS", 3),
			RetryBase:             utils.GetEnvDuration("RETRY_BASE_MS", time.Second),
			RetryJitter:           utils.GetEnvBool("RETRY_JITTER", false),
		},
		Breaker: BreakerConfig{
			Enabled:     utils.GetEnvBool("CIRCUIT_BREAKER_ENABLED", false),
			MaxRequests: uint32(utils.GetEnvInt("CIRCUIT_BREAKER_MAX_REQUESTS", 5)),
			Interval:    utils.GetEnvDuration("CIRCUIT_BREAKER_INTERVAL", time.Minute),
			Timeout:     utils.GetEnvDuration("CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
		},
		Retention: RetentionConfig{
			Enabled:          utils.GetEnvBool("CLEANUP_ENABLED", true),
			Schedule:         utils.GetEnv("CLEANUP_SCHEDULE", "@daily"),
			DeliveryEventTTL: utils.GetEnvDuration("DELIVERY_EVENT_RETENTION", 30*24*time.Hour),
		},
		Auth: AuthConfig{
			Enabled:      utils.GetEnvBool("AUTH_ENABLED", false),
			AccessSecret: utils.GetEnv("JWT_ACCESS_SECRET_KEY", ""),
		},
		SeedFile: utils.GetEnv("SEED_FILE", ""),
	}
	return cfg, nil
}

// ValidateDatabase reports every missing database variable at once.
func (c *Config) ValidateDatabase() error {
	db := c.Database
	if db.Driver != "postgres" && db.Driver != "mysql" {
		return fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}
	if db.URL != "" {
		return nil
	}
	var missingVars []string
	if db.Host == "" {
		missingVars = append(missingVars, "DB_HOST")
	}
	if db.Port == "" {
		missingVars = append(missingVars, "DB_PORT")
	}
	if db.User == "" {
		missingVars = append(missingVars, "DB_USER")
	}
	if db.DBName == "" {
		missingVars = append(missingVars, "DB_NAME")
	}
	if len(missingVars) > 0 {
		return fmt.Errorf("missing required database environment variables (or DATABASE_URL): %s", strings.Join(missingVars, ", "))
	}
	return nil
}

// ValidateServe checks what the HTTP server needs beyond the database.
func (c *Config) ValidateServe() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	var missingVars []string
	if c.WhatsApp.Token == "" {
		missingVars = append(missingVars, "WHATSAPP_TOKEN")
	}
	if c.WhatsApp.PhoneNumberID == "" {
		missingVars = append(missingVars, "PHONE_NUMBER_ID")
	}
	if c.WhatsApp.WebhookVerifyToken == "" {
		missingVars = append(missingVars, "WEBHOOK_VERIFY_TOKEN")
	}
	if c.Auth.Enabled && c.Auth.AccessSecret == "" {
		missingVars = append(missingVars, "JWT_ACCESS_SECRET_KEY")
	}
	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}
	if c.Dispatch.DefaultMaxPerSecond <= 0 || c.Dispatch.DefaultMaxConcurrency <= 0 {
		return errors.New("SEND_MAX_PER_SECOND and SEND_CONCURRENCY must be positive")
	}
	if c.Dispatch.RetryMaxAttempts <= 0 {
		return errors.New("RETRY_MAX_ATTEMPTS must be positive")
	}
	return nil
}

func (c DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
			c.User, c.Password, c.Host, c.Port, c.DBName)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
