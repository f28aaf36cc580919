package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Session  SessionConfig  `mapstructure:"session"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Storage  StorageConfig  `mapstructure:"storage"`
	S3       S3Config       `mapstructure:"s3"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	Mode           string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	TrustedProxies []string      `mapstructure:"trusted_proxies"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// AdminConfig holds the single shared admin credential.
// PasswordHash (bcrypt) wins over Password when both are set.
type AdminConfig struct {
	Password     string  `mapstructure:"password"`
	PasswordHash string  `mapstructure:"password_hash"`
	LoginRate    float64 `mapstructure:"login_rate"` // attempts per second per client IP
	LoginBurst   int     `mapstructure:"login_burst"`
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

type DeliveryConfig struct {
	DefaultExpiryDays int `mapstructure:"default_expiry_days"`
}

// StorageConfig selects the object storage driver: "s3", "minio" or "memory".
type StorageConfig struct {
	Driver           string  `mapstructure:"driver"`
	PricePerGBMonth  float64 `mapstructure:"price_per_gb_month"`
	PricePerGBEgress float64 `mapstructure:"price_per_gb_egress"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // host:port, no scheme
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CartTTL  time.Duration `mapstructure:"cart_ttl"`
}

// CleanupConfig holds the cron schedule of the orphan cleanup job.
// An empty schedule disables the job.
type CleanupConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// minSessionSecretLen mirrors the 32 byte minimum of sealed cookie sessions.
const minSessionSecretLen = 32

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Nested keys map to env vars, e.g. session.secret -> SESSION_SECRET
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// Flat names used by existing deployments
	_ = v.BindEnv("admin.password", "ADMIN_PASSWORD")
	_ = v.BindEnv("admin.password_hash", "ADMIN_PASSWORD_HASH")
	_ = v.BindEnv("session.secret", "SESSION_SECRET")
	_ = v.BindEnv("delivery.default_expiry_days", "DEFAULT_EXPIRY_DAYS")

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if err = config.Validate(); err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m") // large downloads stream through the server
	v.SetDefault("server.max_upload_bytes", 512<<20)
	v.SetDefault("admin.login_rate", 0.2)
	v.SetDefault("admin.login_burst", 5)
	v.SetDefault("session.ttl", "5h")
	v.SetDefault("session.cookie_name", "admin_session")
	v.SetDefault("session.secure", true)
	v.SetDefault("delivery.default_expiry_days", 30)
	v.SetDefault("storage.driver", "s3")
	v.SetDefault("storage.price_per_gb_month", 0.015)
	v.SetDefault("storage.price_per_gb_egress", 0.0)
	// Keys without a meaningful default are still registered so that
	// AutomaticEnv picks them up during Unmarshal.
	for _, key := range []string{
		"s3.endpoint", "s3.access_key_id", "s3.secret_access_key", "s3.bucket_name",
		"minio.endpoint", "minio.access_key_id", "minio.secret_access_key", "minio.bucket_name",
		"redis.password", "cleanup.schedule", "admin.password", "admin.password_hash", "session.secret",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("s3.region", "auto")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("minio.use_ssl", true)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "photo_portfolio")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.cart_ttl", "168h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	if len(c.Session.Secret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Delivery.DefaultExpiryDays <= 0 {
		return errors.New("delivery.default_expiry_days must be positive")
	}
	switch c.Storage.Driver {
	case "s3":
		if c.S3.BucketName == "" {
			return errors.New("s3.bucket_name is required for the s3 storage driver")
		}
	case "minio":
		if c.MinIO.Endpoint == "" || c.MinIO.BucketName == "" {
			return errors.New("minio.endpoint and minio.bucket_name are required for the minio storage driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
