package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeDev     = "dev"
	ModeRelease = "release"

	EmailProviderNone = "none"
	EmailProviderLive = "live"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`

	// 起動時に schema.sql を流すか
	Migrate bool `yaml:"migrate"`
}

type TLSConfig struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type AuthConfig struct {
	JWTSecret       string   `yaml:"jwt_secret"`
	VerifySignature *bool    `yaml:"verify_signature"`
	AllowedDomains  []string `yaml:"allowed_domains"`
}

// Verify reports whether token signatures are checked. Defaults to true.
func (a AuthConfig) Verify() bool {
	return a.VerifySignature == nil || *a.VerifySignature
}

type EmailConfig struct {
	Provider      string `yaml:"provider"` // none | live
	APIKey        string `yaml:"api_key"`
	APIURL        string `yaml:"api_url"`
	From          string `yaml:"from"`
	FromName      string `yaml:"from_name"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type BrandingConfig struct {
	CompanyName    string `yaml:"company_name"`
	CompanyURL     string `yaml:"company_url"`
	DefaultLogoURL string `yaml:"default_logo_url"`
	LogoTimeoutSec int    `yaml:"logo_timeout_sec"`
	LogoMaxBytes   int64  `yaml:"logo_max_bytes"`
}

type ReportConfig struct {
	CSVBOM         bool `yaml:"csv_bom"`
	CompressPDF    bool `yaml:"compress_pdf"`
	RowsPerPage    int  `yaml:"rows_per_page"`
	MaxCodeRetries int  `yaml:"max_code_retries"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type Config struct {
	Version  string         `yaml:"version"`
	Mode     string         `yaml:"mode"`
	Listen   string         `yaml:"listen"`
	DB       DatabaseConfig `yaml:"database"`
	TLS      TLSConfig      `yaml:"tls"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Branding BrandingConfig `yaml:"branding"`
	Report   ReportConfig   `yaml:"report"`
	CORS     CORSConfig     `yaml:"cors"`
}

// Load reads the YAML file at path, applies .env / environment overrides,
// fills defaults and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] .env not loaded: %v", err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(buf)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// 環境変数が設定されていれば YAML より優先する
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Mode, "APP_MODE")
	set(&c.DB.Password, "DB_PASSWORD")
	set(&c.Auth.JWTSecret, "AUTH_JWT_SECRET")
	set(&c.Email.APIKey, "RESEND_API_KEY")
	set(&c.Email.Provider, "EMAIL_PROVIDER")
	set(&c.Email.PublicBaseURL, "PUBLIC_BASE_URL")
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8443"
	}
	if c.Email.Provider == "" {
		c.Email.Provider = EmailProviderNone
	}
	if c.Email.APIURL == "" {
		c.Email.APIURL = "https://api.resend.com"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Double Helix Training"
	}
	if c.Email.PublicBaseURL == "" {
		c.Email.PublicBaseURL = "https://training.double-helix.com"
	}
	if c.Branding.CompanyName == "" {
		c.Branding.CompanyName = "Double Helix LLC"
	}
	if c.Branding.LogoTimeoutSec <= 0 {
		c.Branding.LogoTimeoutSec = 5
	}
	if c.Branding.LogoMaxBytes <= 0 {
		c.Branding.LogoMaxBytes = 2 << 20
	}
	if c.Report.RowsPerPage <= 0 {
		c.Report.RowsPerPage = 20
	}
	if c.Report.MaxCodeRetries <= 0 {
		c.Report.MaxCodeRetries = 5
	}
}

func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}
	switch c.Email.Provider {
	case EmailProviderNone:
	case EmailProviderLive:
		if c.Email.APIKey == "" {
			return errors.New("email.provider is live but no api key is configured")
		}
		if c.Email.From == "" {
			return errors.New("email.from is required for the live provider")
		}
	default:
		return fmt.Errorf("email.provider must be %q or %q, got %q", EmailProviderNone, EmailProviderLive, c.Email.Provider)
	}
	if c.Auth.Verify() && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when verify_signature is enabled")
	}
	if len(c.Auth.AllowedDomains) == 0 {
		return errors.New("auth.allowed_domains must not be empty")
	}
	return nil
}
