package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
jwt:
  secret: "test-secret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 30, cfg.JWT.ExpireMinutes)
	assert.True(t, cfg.JWT.SingleSession)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 100, cfg.App.PageSize)
	assert.Equal(t, "pool", cfg.Jobs.Backend)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: "from-file"
`)
	t.Setenv("HB_JWT_SECRET", "from-env")
	t.Setenv("HB_JWT_EXPIRE_MINUTES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 5, cfg.JWT.ExpireMinutes)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8000},
			Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			JWT:      JWTConfig{Secret: "s", Algorithm: "HS256", ExpireMinutes: 30},
			App:      AppSubConfig{PageSize: 100},
			Jobs:     JobsConfig{Backend: "pool"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "database.dsn"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"asymmetric alg", func(c *Config) { c.JWT.Algorithm = "RS256" }, "jwt.algorithm"},
		{"unknown alg", func(c *Config) { c.JWT.Algorithm = "none-such" }, "jwt.algorithm"},
		{"amqp without url", func(c *Config) { c.Jobs.Backend = "amqp" }, "jobs.amqp_url"},
		{"unknown backend", func(c *Config) { c.Jobs.Backend = "kafka" }, "jobs.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
