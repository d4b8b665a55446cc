package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
version: "1"
mode: dev
database:
  host: localhost
  port: 3306
  user: training
  password: from-yaml
  dbname: training
auth:
  jwt_secret: s3cret
  allowed_domains: [double-helix.com]
email:
  provider: none
`

func TestParseAndDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	cfg.applyDefaults()

	assert.Equal(t, "dev", cfg.Mode)
	assert.Equal(t, 3306, cfg.DB.Port)
	assert.Equal(t, ":8443", cfg.Listen)
	assert.Equal(t, "Double Helix LLC", cfg.Branding.CompanyName)
	assert.Equal(t, 20, cfg.Report.RowsPerPage)
	assert.Equal(t, 5, cfg.Report.MaxCodeRetries)
	assert.True(t, cfg.Auth.Verify())
	require.NoError(t, cfg.Validate())
}

func TestEnvOverridesYAML(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	env := map[string]string{
		"DB_PASSWORD":    "from-env",
		"EMAIL_PROVIDER": "live",
		"RESEND_API_KEY": "re_123",
	}
	cfg.applyEnv(func(k string) string { return env[k] })
	cfg.applyDefaults()

	assert.Equal(t, "from-env", cfg.DB.Password)
	assert.Equal(t, EmailProviderLive, cfg.Email.Provider)
	assert.Equal(t, "re_123", cfg.Email.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"bad mode", func(c *Config) { c.Mode = "staging" }, false},
		{"live without key", func(c *Config) { c.Email.Provider = EmailProviderLive; c.Email.From = "a@b.c" }, false},
		{"live without from", func(c *Config) { c.Email.Provider = EmailProviderLive; c.Email.APIKey = "k" }, false},
		{"unknown provider", func(c *Config) { c.Email.Provider = "smtp" }, false},
		{"no secret", func(c *Config) { c.Auth.JWTSecret = "" }, false},
		{"no secret but unverified", func(c *Config) {
			off := false
			c.Auth.JWTSecret = ""
			c.Auth.VerifySignature = &off
		}, true},
		{"no domains", func(c *Config) { c.Auth.AllowedDomains = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(sample))
			require.NoError(t, err)
			cfg.applyDefaults()
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
