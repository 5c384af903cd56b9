// Package config loads goaccountd settings from built-in defaults, an optional
// TOML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/jwt"
)

const (
	DefaultConfigPath   = "config.toml"
	DefaultPort         = 5000
	DefaultAppEnv       = "production"
	DefaultDatabaseURL  = "memory://"
	DefaultJWTExpires   = "1h"
	DefaultRefreshTTL   = "7d"
	DefaultSMTPHost     = "smtp.gmail.com"
	DefaultSMTPPort     = 587
	DefaultFrontendURL  = "http://localhost:3000"
	DefaultMailFrom     = "noreply@example.com"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultBcryptCost   = 10
	DefaultMailProvider = "smtp"

	envDevelopment   = "development"
	devAccessSecret  = "your_jwt_secret"
	devRefreshSecret = "your_refresh_secret"
)

// Config is the process configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	JWT      JWTConfig      `toml:"jwt"`
	Mail     MailConfig     `toml:"mail"`
	Log      LogConfig      `toml:"log"`
	Password PasswordConfig `toml:"password"`
}

type ServerConfig struct {
	Port int    `toml:"port" env:"PORT"`
	Env  string `toml:"env"  env:"APP_ENV"`
}

// DatabaseConfig selects the store by URL scheme: memory, redis, rediss,
// postgres, postgresql or mongodb.
type DatabaseConfig struct {
	URL string `toml:"url" env:"DATABASE_URL"`
}

// JWTConfig keeps expirations as text so "7d" style values work.
type JWTConfig struct {
	Secret         string `toml:"secret"          env:"JWT_SECRET"`
	Expires        string `toml:"expires"         env:"JWT_EXPIRES"`
	RefreshSecret  string `toml:"refresh_secret"  env:"REFRESH_SECRET"`
	RefreshExpires string `toml:"refresh_expires" env:"REFRESH_EXPIRES"`
	Issuer         string `toml:"issuer"          env:"JWT_ISSUER"`
}

type MailConfig struct {
	Transport     string `toml:"transport"       env:"MAIL_TRANSPORT"`
	Host          string `toml:"host"            env:"EMAIL_HOST"`
	Port          int    `toml:"port"            env:"EMAIL_PORT"`
	User          string `toml:"user"            env:"EMAIL_USER"`
	Password      string `toml:"password"        env:"EMAIL_PASSWORD"`
	From          string `toml:"from"            env:"EMAIL_FROM"`
	MailgunDomain string `toml:"mailgun_domain"  env:"MAILGUN_DOMAIN"`
	MailgunAPIKey string `toml:"mailgun_api_key" env:"MAILGUN_API_KEY"`
	FrontendURL   string `toml:"frontend_url"    env:"FRONTEND_URL"`
}

type LogConfig struct {
	Level  string `toml:"level"  env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"`
}

type PasswordConfig struct {
	BcryptCost int `toml:"bcrypt_cost" env:"BCRYPT_COST"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port: DefaultPort,
			Env:  DefaultAppEnv,
		},
		Database: DatabaseConfig{
			URL: DefaultDatabaseURL,
		},
		JWT: JWTConfig{
			Expires:        DefaultJWTExpires,
			RefreshExpires: DefaultRefreshTTL,
		},
		Mail: MailConfig{
			Transport:   DefaultMailProvider,
			Host:        DefaultSMTPHost,
			Port:        DefaultSMTPPort,
			From:        DefaultMailFrom,
			FrontendURL: DefaultFrontendURL,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Password: PasswordConfig{
			BcryptCost: DefaultBcryptCost,
		},
	}
}

// Load reads dotenv files, then the TOML file at path, then the environment.
// A missing dotenv or TOML file is not an error. An empty path falls back to
// CONFIG_PATH and then to DefaultConfigPath.
func Load(path string, dotenv ...string) (Config, error) {
	// Existing variables win over .env entries.
	_ = godotenv.Load(dotenv...)

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	applyFallbacks(&cfg)

	return cfg, nil
}

// applyFallbacks honours the legacy variable names when the primary ones are
// unset.
func applyFallbacks(cfg *Config) {
	if _, ok := os.LookupEnv("APP_ENV"); !ok {
		if v, ok := os.LookupEnv("NODE_ENV"); ok && v != "" {
			cfg.Server.Env = v
		}
	}
	if _, ok := os.LookupEnv("DATABASE_URL"); !ok {
		if v, ok := os.LookupEnv("MONGO_URL"); ok && v != "" {
			cfg.Database.URL = v
		}
	}
}

// Development reports whether the environment is explicitly "development".
// Any other value, including an empty one, is treated as production.
func (c Config) Development() bool {
	return strings.EqualFold(strings.TrimSpace(c.Server.Env), envDevelopment)
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

// EngineConfig maps the process settings onto the engine configuration.
// Missing secrets fall back to fixed placeholders only in development.
func (c Config) EngineConfig() (goAccount.Config, error) {
	out := goAccount.DefaultConfig()

	access, refresh := c.JWT.Secret, c.JWT.RefreshSecret
	if c.Development() {
		if access == "" {
			access = devAccessSecret
		}
		if refresh == "" {
			refresh = devRefreshSecret
		}
	}
	if access == "" || refresh == "" {
		return out, errors.New("config: JWT_SECRET and REFRESH_SECRET are required outside development")
	}

	out.JWT.AccessSecret = access
	out.JWT.RefreshSecret = refresh
	out.JWT.AccessTTL = tokenTTL(c.JWT.Expires, jwt.DefaultAccessTTL)
	out.JWT.RefreshTTL = tokenTTL(c.JWT.RefreshExpires, jwt.DefaultRefreshTTL)
	out.JWT.Issuer = c.JWT.Issuer
	if c.Password.BcryptCost > 0 {
		out.Password.BcryptCost = c.Password.BcryptCost
	}
	out.PasswordReset.ExposeToken = c.Development()

	return out, nil
}

// tokenTTL applies def to an unset value and hands anything else to
// jwt.ParseDuration, which falls back to one hour on malformed input.
func tokenTTL(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return jwt.ParseDuration(s)
}
