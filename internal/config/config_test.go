package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:       "8080",
		Env:        "development",
		DBDriver:   DriverSQLite,
		JWTSecret:  "secure-secret-at-least-32-chars-long",
		DBPassword: "secure-password",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"Postgres driver", func(c *Config) { c.DBDriver = DriverPostgres }, false},
		{"Production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = DefaultJWTSecret
		}, true},
		{"Production short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"Production weak postgres password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = DriverPostgres
			c.DBPassword = "password"
		}, true},
		{"Production postgres with DSN", func(c *Config) {
			c.Env = "production"
			c.DBDriver = DriverPostgres
			c.DBPassword = ""
			c.DBDSN = "postgres://inkwell:s3cret@db/inkwell"
		}, false},
		{"Development short secret only warns", func(c *Config) { c.JWTSecret = "short" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SessionTTL(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 7*24*time.Hour, c.SessionTTL())

	c.SessionTTLHours = 2
	assert.Equal(t, 2*time.Hour, c.SessionTTL())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("PORT", "9999")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "inkwell-api", c.JWTIssuer)
	assert.Equal(t, 24*7, c.SessionTTLHours)
}
