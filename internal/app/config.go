package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/charlesng35/gatepass/internal/credentials"
	"github.com/charlesng35/gatepass/internal/database"
	"github.com/charlesng35/gatepass/internal/storage"
	"github.com/charlesng35/gatepass/pkg/crypto"
)

// Config represents the runtime configuration for the gatepass server.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Admin       AdminConfig       `mapstructure:"admin"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Realtime    RealtimeConfig    `mapstructure:"realtime"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int             `mapstructure:"port"`
	LogLevel    string          `mapstructure:"log_level"`
	LogEncoding string          `mapstructure:"log_encoding"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig throttles the public validation endpoints per client IP.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CredentialsConfig controls token derivation and QR rendering.
type CredentialsConfig struct {
	Secret        string          `mapstructure:"secret"`
	BaseURL       string          `mapstructure:"base_url"`
	QRSize        int             `mapstructure:"qr_size"`
	RecoveryLevel string          `mapstructure:"recovery_level"`
	AutoIssue     AutoIssueConfig `mapstructure:"auto_issue"`
}

// AutoIssueConfig schedules background issuance for registrants lacking a credential.
type AutoIssueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// StorageConfig selects where QR images are persisted.
type StorageConfig struct {
	Driver string             `mapstructure:"driver"`
	Local  LocalStorageConfig `mapstructure:"local"`
	S3     S3StorageConfig    `mapstructure:"s3"`
}

// LocalStorageConfig stores images below a directory on disk.
type LocalStorageConfig struct {
	Path string `mapstructure:"path"`
}

// S3StorageConfig targets an S3 compatible bucket (AWS, MinIO).
type S3StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// AdminConfig guards the administrative API. APIKeyHash takes precedence over APIKey.
type AdminConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APIKeyHash string `mapstructure:"api_key_hash"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// RealtimeConfig toggles the live scan feed.
type RealtimeConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MaintenanceConfig schedules periodic housekeeping jobs.
type MaintenanceConfig struct {
	SummarySchedule string        `mapstructure:"summary_schedule"`
	JobTimeout      time.Duration `mapstructure:"job_timeout"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("GATEPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_encoding", "json")
	v.SetDefault("server.rate_limit.requests_per_minute", 600)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/gatepass.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.username", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.mysql.host", "")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.database", "")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")

	v.SetDefault("credentials.secret", "")
	v.SetDefault("credentials.base_url", "http://localhost:8000")
	v.SetDefault("credentials.qr_size", 290)
	v.SetDefault("credentials.recovery_level", "medium")
	v.SetDefault("credentials.auto_issue.enabled", false)
	v.SetDefault("credentials.auto_issue.schedule", "@every 5m")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.path", "./data/qr_codes")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.use_path_style", false)

	v.SetDefault("admin.api_key", "")
	v.SetDefault("admin.api_key_hash", "")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("realtime.enabled", true)

	v.SetDefault("maintenance.summary_schedule", "@every 15m")
	v.SetDefault("maintenance.job_timeout", "2m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// ConnectionConfig converts the database settings into connection options for the configured driver.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	var auth DBAuthConfig
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "postgres", "postgresql":
		auth = c.Postgres
	case "mysql", "mariadb":
		auth = c.MySQL
	default:
		return cfg
	}

	cfg.Host = auth.Host
	cfg.Port = auth.Port
	cfg.Name = auth.Database
	cfg.User = auth.Username
	cfg.Password = auth.Password
	return cfg
}

// GeneratorConfig returns the settings used to mint credentials.
func (c CredentialsConfig) GeneratorConfig() credentials.Config {
	return credentials.Config{
		Secret:        c.Secret,
		BaseURL:       c.BaseURL,
		QRSize:        c.QRSize,
		RecoveryLevel: c.RecoveryLevel,
	}
}

// StoreConfig returns the image store settings.
func (c StorageConfig) StoreConfig() storage.Config {
	return storage.Config{
		Driver: c.Driver,
		Local:  storage.LocalConfig{Path: c.Local.Path},
		S3: storage.S3Config{
			Bucket:          c.S3.Bucket,
			Region:          c.S3.Region,
			Endpoint:        c.S3.Endpoint,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Prefix:          c.S3.Prefix,
			UsePathStyle:    c.S3.UsePathStyle,
		},
	}
}

// KeyHash returns the bcrypt hash guarding the admin API, hashing APIKey when no hash is configured.
func (c AdminConfig) KeyHash() (string, error) {
	if hash := strings.TrimSpace(c.APIKeyHash); hash != "" {
		if !crypto.IsBcryptHash(hash) {
			return "", errors.New("config: admin.api_key_hash must be a bcrypt hash")
		}
		return hash, nil
	}

	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return "", errors.New("config: admin.api_key or admin.api_key_hash is required")
	}
	hash, err := crypto.HashSecret(key)
	if err != nil {
		return "", fmt.Errorf("config: hash admin key: %w", err)
	}
	return hash, nil
}
