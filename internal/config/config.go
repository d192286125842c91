package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

// Module loads the process configuration from the environment.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config is the full process configuration, populated from FP_* env vars.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	HTTP      HTTPConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	SMTP      SMTPConfig
	Telemetry TelemetryConfig
	Bootstrap BootstrapConfig
}

type HTTPConfig struct {
	Addr              string `envconfig:"HTTP_ADDR" default:":8080"`
	LoginRateLimit    int    `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	LoginRateWindowMS int    `envconfig:"LOGIN_RATE_WINDOW_MS" default:"60000"`
}

type DatabaseConfig struct {
	Driver                 string `envconfig:"DB_DRIVER" default:"sqlite"`
	DSN                    string `envconfig:"DB_DSN" default:"forestry.db"`
	MaxOpenConns           int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns           int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetimeMinutes int    `envconfig:"DB_CONN_MAX_LIFETIME_MINUTES" default:"30"`
}

type JWTConfig struct {
	Secret        string `envconfig:"JWT_SECRET"`
	ExpiryMinutes int    `envconfig:"JWT_EXPIRY_MINUTES" default:"1440"`
}

type StorageConfig struct {
	// UploadDir holds master assets; derived artifacts go to
	// UploadDir/watermarked.
	UploadDir string `envconfig:"UPLOAD_DIR" default:"./uploads"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"no-reply@forestry-pots.local"`
	AdminTo  string `envconfig:"SMTP_ADMIN_TO"`
}

type TelemetryConfig struct {
	Enabled          bool    `envconfig:"OTEL_ENABLED" default:"false"`
	ServiceName      string  `envconfig:"OTEL_SERVICE_NAME" default:"forestry-pots"`
	ExporterEndpoint string  `envconfig:"OTEL_EXPORTER_ENDPOINT" default:"localhost:4318"`
	ExporterProtocol string  `envconfig:"OTEL_EXPORTER_PROTOCOL" default:"http"`
	SamplingRatio    float64 `envconfig:"OTEL_SAMPLING_RATIO" default:"1.0"`
}

type BootstrapConfig struct {
	EnsureDefaultAdmin   bool   `envconfig:"BOOTSTRAP_ENSURE_ADMIN" default:"true"`
	DefaultAdminEmail    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL" default:"admin@forestry-pots.local"`
	DefaultAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD" default:"admin"`
}

// Load reads configuration from the environment. A .env file is honored
// outside production for local development.
func Load() (Config, error) {
	var cfg Config
	_ = godotenv.Load()
	if err := envconfig.Process("FP", &cfg); err != nil {
		return Config{}, fmt.Errorf("process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.IsProduction() && strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("FP_JWT_SECRET is required in production")
	}
	return nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// MailEnabled reports whether outbound mail is configured.
func (c Config) MailEnabled() bool {
	return strings.TrimSpace(c.SMTP.Host) != ""
}
