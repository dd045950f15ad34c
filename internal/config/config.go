// Package config loads server settings from the environment and optional .env files.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgcrypto "github.com/and161185/sitecms/internal/crypto"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// DotenvFiles are loaded in order when present; earlier files win.
var DotenvFiles = []string{".env.local", ".env"}

// S3 configures the optional backup mirror.
type S3 struct {
	Bucket         string `env:"BUCKET"`
	Region         string `env:"REGION" envDefault:"us-east-1"`
	Prefix         string `env:"PREFIX" envDefault:"sitecms/"`
	AccessKeyID    string `env:"ACCESS_KEY_ID"`
	SecretKey      string `env:"SECRET_ACCESS_KEY"`
	Endpoint       string `env:"ENDPOINT"`
	ForcePathStyle bool   `env:"FORCE_PATH_STYLE" envDefault:"false"`
}

// Enabled reports whether a bucket is configured.
func (s S3) Enabled() bool { return s.Bucket != "" }

// Config holds every server setting.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminPassword          string        `env:"ADMIN_PASSWORD"`
	SessionSecret          string        `env:"ADMIN_SESSION_SECRET"`
	CookieName             string        `env:"ADMIN_COOKIE_NAME" envDefault:"cms_admin_session"`
	SessionDurationSeconds int           `env:"ADMIN_SESSION_DURATION" envDefault:"604800"`
	CleanupInterval        time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	RateLimitMax      int `env:"RATE_LIMIT_MAX" envDefault:"10"`
	RateLimitWindowMs int `env:"RATE_LIMIT_WINDOW" envDefault:"60000"`

	ContentMaxSize  int    `env:"CONTENT_MAX_SIZE" envDefault:"1048576"`
	BackupEnabled   bool   `env:"CONTENT_BACKUP_ENABLED" envDefault:"false"`
	APILogs         bool   `env:"ENABLE_API_LOGS" envDefault:"false"`
	ContentBackend  string `env:"CONTENT_BACKEND" envDefault:"file"`
	ContentFilePath string `env:"CONTENT_FILE_PATH" envDefault:"data/content.json"`
	StateBackend    string `env:"STATE_BACKEND" envDefault:"memory"`

	DatabaseURL      string `env:"DATABASE_URL"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	RedisURL         string `env:"REDIS_URL"`

	S3 S3 `envPrefix:"BACKUP_S3_"`

	PostmarkServerToken string `env:"POSTMARK_SERVER_TOKEN"`
	ContactNotifyFrom   string `env:"CONTACT_NOTIFY_FROM"`
	ContactNotifyTo     string `env:"CONTACT_NOTIFY_TO"`

	// Generated lists the variables that were filled with random values.
	Generated []string
}

// Production reports whether APP_ENV is production.
func (c *Config) Production() bool { return c.Env == EnvProduction }

// SessionDuration converts ADMIN_SESSION_DURATION to a duration.
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.SessionDurationSeconds) * time.Second
}

// RateLimitWindow converts RATE_LIMIT_WINDOW to a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMs) * time.Millisecond
}

// PostmarkEnabled reports whether contact mail can be sent.
func (c *Config) PostmarkEnabled() bool {
	return c.PostmarkServerToken != "" && c.ContactNotifyTo != "" && c.ContactNotifyFrom != ""
}

// Load reads the dotenv files that exist and then parses the process environment.
func Load() (*Config, error) {
	var present []string
	for _, f := range DotenvFiles {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) > 0 {
		if err := godotenv.Load(present...); err != nil {
			return nil, fmt.Errorf("load dotenv: %w", err)
		}
	}
	return parse(env.Options{})
}

// FromMap parses settings from m instead of the process environment.
func FromMap(m map[string]string) (*Config, error) {
	return parse(env.Options{Environment: m})
}

func parse(opts env.Options) (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.finalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) finalize() error {
	var problems []error

	if c.AdminPassword == "" {
		if c.Production() {
			problems = append(problems, errors.New("ADMIN_PASSWORD is required in production"))
		} else if v, err := randomValue(18); err == nil {
			c.AdminPassword = v
			c.Generated = append(c.Generated, "ADMIN_PASSWORD")
		} else {
			problems = append(problems, err)
		}
	}
	if c.SessionSecret == "" {
		if c.Production() {
			problems = append(problems, errors.New("ADMIN_SESSION_SECRET is required in production"))
		} else if v, err := randomValue(32); err == nil {
			c.SessionSecret = v
			c.Generated = append(c.Generated, "ADMIN_SESSION_SECRET")
		} else {
			problems = append(problems, err)
		}
	}

	if c.SessionDurationSeconds <= 0 {
		problems = append(problems, errors.New("ADMIN_SESSION_DURATION must be positive"))
	}
	if c.RateLimitMax <= 0 {
		problems = append(problems, errors.New("RATE_LIMIT_MAX must be positive"))
	}
	if c.RateLimitWindowMs <= 0 {
		problems = append(problems, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.ContentMaxSize <= 0 {
		problems = append(problems, errors.New("CONTENT_MAX_SIZE must be positive"))
	}
	if c.PostmarkServerToken != "" && (c.ContactNotifyFrom == "" || c.ContactNotifyTo == "") {
		problems = append(problems, errors.New("POSTMARK_SERVER_TOKEN requires CONTACT_NOTIFY_FROM and CONTACT_NOTIFY_TO"))
	}
	if c.CookieName == "" {
		problems = append(problems, errors.New("ADMIN_COOKIE_NAME must not be empty"))
	}

	switch c.ContentBackend {
	case BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, errors.New("CONTENT_BACKEND=postgres requires DATABASE_URL"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown CONTENT_BACKEND %q", c.ContentBackend))
	}

	switch c.StateBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, errors.New("STATE_BACKEND=postgres requires DATABASE_URL"))
		}
	case BackendRedis:
		if c.RedisURL == "" {
			problems = append(problems, errors.New("STATE_BACKEND=redis requires REDIS_URL"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend))
	}

	return errors.Join(problems...)
}

// NeedsPostgres reports whether any backend uses DATABASE_URL.
func (c *Config) NeedsPostgres() bool {
	return c.ContentBackend == BackendPostgres || c.StateBackend == BackendPostgres
}

func randomValue(n int) (string, error) {
	b, err := pkgcrypto.RandBytes(n)
	if err != nil {
		return "", fmt.Errorf("generate random value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
