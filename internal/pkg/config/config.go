package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	CORS     CORSConfig
	Log      LogConfig
	Store    StoreConfig
	Payment  PaymentConfig
	Notify   NotifyConfig
	Checkout CheckoutConfig
	Kafka    KafkaConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER"`
	Password    string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME"`
	SSLMode     string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone    string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"20"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
	// Format is "json" or "text". Empty picks json in release mode.
	Format         string `envconfig:"LOG_FORMAT"`
}

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver   string `envconfig:"STORE_DRIVER" default:"postgres"`
	// SeedFile preloads the in-memory catalog.
	SeedFile string `envconfig:"STORE_SEED_FILE"`
}

type PaymentConfig struct {
	BaseURL          string        `envconfig:"PAYMENT_GATEWAY_URL" required:"true"`
	SecretKey        string        `envconfig:"PAYMENT_SECRET_KEY" required:"true"`
	Timeout          time.Duration `envconfig:"PAYMENT_GATEWAY_TIMEOUT" default:"10s"`
	SuccessURL       string        `envconfig:"PAYMENT_SUCCESS_URL" required:"true"`
	CancelURL        string        `envconfig:"PAYMENT_CANCEL_URL" required:"true"`
	WebhookSecret    string        `envconfig:"PAYMENT_WEBHOOK_SECRET" required:"true"`
	WebhookTolerance time.Duration `envconfig:"PAYMENT_WEBHOOK_TOLERANCE" default:"5m"`
}

type NotifyConfig struct {
	SMTPHost       string        `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort       int           `envconfig:"SMTP_PORT" default:"25"`
	SMTPUser       string        `envconfig:"SMTP_USER"`
	SMTPPassword   string        `envconfig:"SMTP_PASSWORD"`
	From           string        `envconfig:"NOTIFY_FROM" required:"true"`
	OperatorEmail  string        `envconfig:"NOTIFY_OPERATOR_EMAIL" required:"true"`
	MaxAttempts    int           `envconfig:"NOTIFY_MAX_ATTEMPTS" default:"5"`
	InlineAttempts int           `envconfig:"NOTIFY_INLINE_ATTEMPTS" default:"3"`
	RetryBackoff   time.Duration `envconfig:"NOTIFY_RETRY_BACKOFF" default:"200ms"`
	SendTimeout    time.Duration `envconfig:"NOTIFY_SEND_TIMEOUT" default:"30s"`
	ClaimLease     time.Duration `envconfig:"NOTIFY_CLAIM_LEASE" default:"2m"`
	RetryInterval  time.Duration `envconfig:"NOTIFY_RETRY_INTERVAL" default:"1m"`
	SweepBatchSize int           `envconfig:"NOTIFY_SWEEP_BATCH_SIZE" default:"100"`
}

type CheckoutConfig struct {
	SessionTTL time.Duration `envconfig:"CHECKOUT_SESSION_TTL" default:"24h"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"PAYMENT_EVENTS_TOPIC" default:"payment-events"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"marketplace-checkout"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if cfg.Store.Driver != StoreDriverMemory && cfg.Store.Driver != StoreDriverPostgres {
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 10,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       time.Hour,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Store: StoreConfig{Driver: StoreDriverMemory},
		Payment: PaymentConfig{
			BaseURL:          "http://localhost:12111",
			SecretKey:        "sk_test",
			Timeout:          2 * time.Second,
			SuccessURL:       "http://localhost:3000/checkout/success?session={CHECKOUT_SESSION_ID}",
			CancelURL:        "http://localhost:3000/checkout/cancel?session={CHECKOUT_SESSION_ID}",
			WebhookSecret:    "whsec_test",
			WebhookTolerance: 5 * time.Minute,
		},
		Notify: NotifyConfig{
			From:           "shop@example.com",
			OperatorEmail:  "operator@example.com",
			MaxAttempts:    5,
			InlineAttempts: 2,
			RetryBackoff:   time.Millisecond,
			SendTimeout:    5 * time.Second,
			ClaimLease:     time.Minute,
			RetryInterval:  time.Second,
			SweepBatchSize: 100,
		},
		Checkout: CheckoutConfig{SessionTTL: 24 * time.Hour},
		Kafka:    KafkaConfig{Topic: "payment-events", GroupID: "marketplace-checkout-test"},
	}
}
