package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Log     LogConfig
	Cache   CacheConfig
	Store   StoreConfig
	Mongo   MongoConfig
	Billplz BillplzConfig
	Discord DiscordConfig
	Orders  OrderConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	RateLimit       float64       `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateBurst       int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name          string        `envconfig:"APP_NAME" default:"aecoin-store"`
	Environment   string        `envconfig:"APP_ENV" default:"development"`
	Version       string        `envconfig:"APP_VERSION" default:"1.0.0"`
	PublicBaseURL string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	FrontendURL   string        `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	AdminAPIKeys  []string      `envconfig:"ADMIN_API_KEYS"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:""` // json or console; empty picks by environment
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"REDIS_KEY_PREFIX" default:"aecoin"`
}

// StoreConfig holds the relational store settings.
type StoreConfig struct {
	Type string `envconfig:"STORE_DB_TYPE" default:"sqlite"` // sqlite, mysql, or postgres
	Path string `envconfig:"STORE_DB_PATH" default:"./data/aecoin.db"`

	Host     string `envconfig:"STORE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_DB_PORT" default:"0"`
	Name     string `envconfig:"STORE_DB_NAME" default:"aecoin"`
	User     string `envconfig:"STORE_DB_USER" default:"root"`
	Password string `envconfig:"STORE_DB_PASS" default:""`
	SSLMode  string `envconfig:"STORE_DB_SSLMODE" default:"disable"`
}

// MongoConfig holds settings for the payment event audit log.
type MongoConfig struct {
	URI        string `envconfig:"MONGODB_URI" default:""`
	Database   string `envconfig:"MONGODB_DATABASE" default:"aecoin"`
	Collection string `envconfig:"MONGODB_COLLECTION" default:"payment_events"`
}

// BillplzConfig holds payment gateway settings.
type BillplzConfig struct {
	BaseURL       string        `envconfig:"BILLPLZ_BASE_URL" default:"https://www.billplz.com/api"`
	SecretKey     string        `envconfig:"BILLPLZ_SECRET_KEY" default:""`
	SignatureKey  string        `envconfig:"BILLPLZ_SIGNATURE_KEY" default:""`
	CollectionID  string        `envconfig:"BILLPLZ_COLLECTION_ID" default:""`
	AllowUnsigned bool          `envconfig:"BILLPLZ_ALLOW_UNSIGNED" default:"false"`
	Timeout       time.Duration `envconfig:"BILLPLZ_TIMEOUT" default:"15s"`
	MaxAttempts   uint          `envconfig:"BILLPLZ_MAX_ATTEMPTS" default:"3"`
}

// DiscordConfig holds the order notification webhook.
type DiscordConfig struct {
	WebhookURL string        `envconfig:"DISCORD_WEBHOOK_URL" default:""`
	Timeout    time.Duration `envconfig:"DISCORD_TIMEOUT" default:"10s"`
}

// OrderConfig holds order lifecycle settings.
type OrderConfig struct {
	PendingTTL     time.Duration `envconfig:"ORDER_PENDING_TTL" default:"24h"`
	ExpiryInterval time.Duration `envconfig:"ORDER_EXPIRY_INTERVAL" default:"10m"`
	MaxQuantity    int           `envconfig:"ORDER_MAX_QUANTITY" default:"10"`
}

// DSN returns the driver name and data source name for the configured store.
func (s *StoreConfig) DSN() (driver, dsn string) {
	switch s.Type {
	case "mysql":
		port := s.Port
		if port == 0 {
			port = 3306
		}
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&clientFoundRows=true",
			s.User, s.Password, s.Host, port, s.Name)
	case "postgres", "postgresql":
		port := s.Port
		if port == 0 {
			port = 5432
		}
		return "postgres", fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			s.User, s.Password, s.Host, port, s.Name, s.SSLMode)
	default:
		return "sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", s.Path)
	}
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// CallbackURL is where Billplz posts server-to-server payment updates.
func (a *AppConfig) CallbackURL() string {
	return strings.TrimRight(a.PublicBaseURL, "/") + "/api/v1/payments/billplz/callback"
}

// RedirectURL is where Billplz sends the customer's browser after payment.
func (a *AppConfig) RedirectURL() string {
	return strings.TrimRight(a.PublicBaseURL, "/") + "/api/v1/payments/billplz/redirect"
}

// AllowUnsignedWebhooks reports whether gateway messages may skip signature
// verification when no signature key is configured. Development only.
func (c *Config) AllowUnsignedWebhooks() bool {
	return c.Billplz.AllowUnsigned && c.App.IsDevelopment()
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.App.Environment {
	case "development", "staging", "production", "test":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of development, staging, production, test; got %q", c.App.Environment))
	}

	switch c.Store.Type {
	case "sqlite", "mysql", "postgres", "postgresql":
	default:
		errs = append(errs, fmt.Errorf("STORE_DB_TYPE must be sqlite, mysql or postgres; got %q", c.Store.Type))
	}

	switch c.Cache.Type {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("CACHE_TYPE must be memory or redis; got %q", c.Cache.Type))
	}

	if c.App.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required"))
	}

	if c.Billplz.AllowUnsigned && !c.App.IsDevelopment() {
		errs = append(errs, fmt.Errorf("BILLPLZ_ALLOW_UNSIGNED is only allowed with APP_ENV=development; got %q", c.App.Environment))
	}

	if c.App.IsProduction() {
		if c.Billplz.SignatureKey == "" {
			errs = append(errs, errors.New("BILLPLZ_SIGNATURE_KEY is required in production"))
		}
		if c.Billplz.SecretKey == "" {
			errs = append(errs, errors.New("BILLPLZ_SECRET_KEY is required in production"))
		}
	}

	if c.Billplz.MaxAttempts == 0 {
		errs = append(errs, errors.New("BILLPLZ_MAX_ATTEMPTS must be at least 1"))
	}

	if c.Orders.MaxQuantity < 1 {
		errs = append(errs, errors.New("ORDER_MAX_QUANTITY must be at least 1"))
	}

	return errors.Join(errs...)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
