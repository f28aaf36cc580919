package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("DEFAULT_EXPIRY_DAYS", "14")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.Admin.Password)
	assert.Equal(t, testSecret, cfg.Session.Secret)
	assert.Equal(t, 14, cfg.Delivery.DefaultExpiryDays)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "admin_session", cfg.Session.CookieName)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
admin:
  password: from-file
session:
  secret: ` + testSecret + `
  ttl: 2h
storage:
  driver: s3
s3:
  bucket_name: deliveries
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Admin.Password)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "deliveries", cfg.S3.BucketName)
	assert.Equal(t, 30, cfg.Delivery.DefaultExpiryDays)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Admin:    AdminConfig{Password: "pw"},
		Session:  SessionConfig{Secret: testSecret, TTL: time.Hour},
		Delivery: DeliveryConfig{DefaultExpiryDays: 30},
		Storage:  StorageConfig{Driver: "memory"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing password", func(c *Config) { c.Admin.Password = "" }},
		{"short secret", func(c *Config) { c.Session.Secret = "short" }},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"zero expiry days", func(c *Config) { c.Delivery.DefaultExpiryDays = 0 }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = "s3" }},
		{"minio without endpoint", func(c *Config) { c.Storage.Driver = "minio" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
