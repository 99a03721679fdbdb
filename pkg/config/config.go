package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	SequenceBackendSnapshot = "snapshot"
	SequenceBackendRedis    = "redis"

	devStoreAPIKey = "dev_store_api_key"
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	SeedOnStart bool

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Invoices InvoiceConfig
	Session  SessionConfig
	CORS     CORSConfig
	Log      LogConfig

	warnings []string
}

// StoreConfig identifies the document store and the credential shared with the identity provider.
type StoreConfig struct {
	Driver               string
	ProjectID            string
	APIKey               string
	ListenerMinReconnect time.Duration
	ListenerMaxReconnect time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// InvoiceConfig selects how invoice display identifiers are allocated.
type InvoiceConfig struct {
	SequenceBackend string
}

type SessionConfig struct {
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.SeedOnStart = v.GetBool("SEED_ON_START")

	cfg.Store = StoreConfig{
		Driver:               strings.ToLower(v.GetString("STORE_DRIVER")),
		ProjectID:            v.GetString("STORE_PROJECT_ID"),
		APIKey:               v.GetString("STORE_API_KEY"),
		ListenerMinReconnect: parseDuration(v.GetString("STORE_LISTENER_MIN_RECONNECT"), 10*time.Second),
		ListenerMaxReconnect: parseDuration(v.GetString("STORE_LISTENER_MAX_RECONNECT"), time.Minute),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Invoices = InvoiceConfig{
		SequenceBackend: strings.ToLower(v.GetString("INVOICE_SEQUENCE_BACKEND")),
	}

	cfg.Session = SessionConfig{
		Expiration: parseDuration(v.GetString("SESSION_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.applyFallbacks()

	return cfg, nil
}

// Warnings lists non-fatal problems detected while loading configuration.
func (c *Config) Warnings() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

func (c *Config) applyFallbacks() {
	if c.Store.APIKey == "" {
		c.warnings = append(c.warnings, "STORE_API_KEY is not set; falling back to an insecure development key")
		c.Store.APIKey = devStoreAPIKey
	}
	if c.Store.ProjectID == "" {
		c.warnings = append(c.warnings, "STORE_PROJECT_ID is not set")
	}
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		c.warnings = append(c.warnings, "unknown STORE_DRIVER "+c.Store.Driver+"; using "+StoreDriverPostgres)
		c.Store.Driver = StoreDriverPostgres
	}
	switch c.Invoices.SequenceBackend {
	case SequenceBackendSnapshot, SequenceBackendRedis:
	default:
		c.warnings = append(c.warnings, "unknown INVOICE_SEQUENCE_BACKEND "+c.Invoices.SequenceBackend+"; using "+SequenceBackendSnapshot)
		c.Invoices.SequenceBackend = SequenceBackendSnapshot
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SEED_ON_START", false)

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("STORE_PROJECT_ID", "")
	v.SetDefault("STORE_API_KEY", "")
	v.SetDefault("STORE_LISTENER_MIN_RECONNECT", "10s")
	v.SetDefault("STORE_LISTENER_MAX_RECONNECT", "1m")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "playschool_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("INVOICE_SEQUENCE_BACKEND", SequenceBackendSnapshot)
	v.SetDefault("SESSION_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
