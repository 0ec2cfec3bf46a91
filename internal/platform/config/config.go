// Package config reads runtime configuration from the environment. An
// optional .env file in the working directory is loaded first; variables
// already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"clinic/pkg/secrets"
)

// Config is the full application configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Security Security
	CEP      CEP
	Log      Log
	Locale   Locale
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	TokenTTL        time.Duration
	AdminToken      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Database configures the SQL store. An empty URL selects in-memory stores.
type Database struct {
	URL             string
	Driver          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// RedisConfig configures the CEP cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit outbox relay. No brokers disables the relay.
type Kafka struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

// Security holds password hashing and policy settings.
type Security struct {
	PBKDF2Iterations  int
	PasswordMinLength int
	PasswordMaxLength int
	RequireUpper      bool
	RequireLower      bool
	RequireDigit      bool
	RequireSpecial    bool

	// Failed logins per email and IP within LoginWindow before the pair is
	// locked out for LoginLockDuration.
	LoginMaxAttempts  int
	LoginWindow       time.Duration
	LoginLockDuration time.Duration
}

// PasswordPolicy converts the settings into a secrets.PasswordPolicy.
func (s Security) PasswordPolicy() secrets.PasswordPolicy {
	return secrets.PasswordPolicy{
		MinLength:      s.PasswordMinLength,
		MaxLength:      s.PasswordMaxLength,
		RequireUpper:   s.RequireUpper,
		RequireLower:   s.RequireLower,
		RequireDigit:   s.RequireDigit,
		RequireSpecial: s.RequireSpecial,
	}
}

// CEP configures the postal-code lookup client.
type CEP struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type Log struct {
	Level  string
	Format string
}

type Locale struct {
	Default string
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	e := &env{}
	defaultPolicy := secrets.DefaultPasswordPolicy()

	cfg := Config{
		Server: Server{
			Addr:            e.str("CLINIC_ADDR", ":8080"),
			JWTSigningKey:   e.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:       e.str("JWT_ISSUER", "clinic"),
			TokenTTL:        e.duration("JWT_TTL", 15*time.Minute),
			AdminToken:      e.str("ADMIN_API_TOKEN", ""),
			RequestTimeout:  e.duration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: e.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			URL:             e.str("DATABASE_URL", ""),
			Driver:          e.str("DATABASE_DRIVER", "pgx"),
			MaxOpenConns:    e.int("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    e.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			TxTimeout:       e.duration("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:      e.list("KAFKA_BROKERS"),
			Topic:        e.str("KAFKA_AUDIT_TOPIC", "clinic.audit"),
			PollInterval: e.duration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    e.int("OUTBOX_BATCH_SIZE", 100),
		},
		Security: Security{
			PBKDF2Iterations:  e.int("SECURITY_PBKDF2_ITERATIONS", secrets.DefaultIterations),
			PasswordMinLength: e.int("SECURITY_PASSWORD_MIN_LENGTH", defaultPolicy.MinLength),
			PasswordMaxLength: e.int("SECURITY_PASSWORD_MAX_LENGTH", defaultPolicy.MaxLength),
			RequireUpper:      e.bool("SECURITY_PASSWORD_REQUIRE_UPPER", defaultPolicy.RequireUpper),
			RequireLower:      e.bool("SECURITY_PASSWORD_REQUIRE_LOWER", defaultPolicy.RequireLower),
			RequireDigit:      e.bool("SECURITY_PASSWORD_REQUIRE_DIGIT", defaultPolicy.RequireDigit),
			RequireSpecial:    e.bool("SECURITY_PASSWORD_REQUIRE_SPECIAL", defaultPolicy.RequireSpecial),
			LoginMaxAttempts:  e.int("SECURITY_LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:       e.duration("SECURITY_LOGIN_WINDOW", 15*time.Minute),
			LoginLockDuration: e.duration("SECURITY_LOGIN_LOCK_DURATION", 15*time.Minute),
		},
		CEP: CEP{
			BaseURL:  e.str("CEP_BASE_URL", "https://viacep.com.br/ws"),
			Timeout:  e.duration("CEP_TIMEOUT", 5*time.Second),
			CacheTTL: e.duration("CEP_CACHE_TTL", 24*time.Hour),
		},
		Log: Log{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "json"),
		},
		Locale: Locale{
			Default: e.str("DEFAULT_LOCALE", "pt-BR"),
		},
	}
	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Security.PBKDF2Iterations < secrets.MinIterations {
		errs = append(errs, fmt.Errorf("SECURITY_PBKDF2_ITERATIONS must be at least %d", secrets.MinIterations))
	}
	if c.Security.PasswordMaxLength > 0 && c.Security.PasswordMaxLength < c.Security.PasswordMinLength {
		errs = append(errs, errors.New("SECURITY_PASSWORD_MAX_LENGTH must not be below the minimum"))
	}
	if c.Security.LoginMaxAttempts < 1 {
		errs = append(errs, errors.New("SECURITY_LOGIN_MAX_ATTEMPTS must be at least 1"))
	}
	switch c.Database.Driver {
	case "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// env reads typed variables and remembers every parse failure.
type env struct {
	errs []error
}

func (e *env) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) int(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *env) bool(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *env) list(key string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
