package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingSecret is returned when a token signing secret is absent.
// It is startup-fatal: the process must not accept traffic without both secrets.
var ErrMissingSecret = errors.New("config: token signing secret is required")

// Session backends.
const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"
)

// AccessTokenTTL is fixed; refresh cycles always mint 15 minute access tokens.
const AccessTokenTTL = 15 * time.Minute

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Session SessionConfig
	Limits  RateLimitConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	Pool DBPoolConfig
}

// DBPoolConfig tunes the database/sql pool shared by the users and audit repositories.
type DBPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig is only read when SESSION_BACKEND=redis.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AuthConfig struct {
	// AccessSecret and RefreshSecret sign the two token classes.
	// They must differ so that leaking one does not forge the other.
	AccessSecret  string
	RefreshSecret string

	Issuer   string
	Audience string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// SecureCookies sets the Secure attribute on session cookies.
	SecureCookies bool
}

type SessionConfig struct {
	// Backend selects where the token pair lives between requests:
	// "cookie" keeps both tokens in HTTP-only cookies,
	// "redis" keeps them server-side keyed by an opaque client id cookie.
	Backend string
}

type RateLimitConfig struct {
	PerSecond int
	Burst     int
}

func Load() (Config, error) {
	c := Config{}
	var env envReader

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port = env.requiredInt("APP_PORT")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port = env.requiredInt("DB_PORT")
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.Pool.MaxOpenConns = env.optionalInt("DB_POOL_MAX_OPEN")
	c.DB.Pool.MaxIdleConns = env.optionalInt("DB_POOL_MAX_IDLE")
	c.DB.Pool.ConnMaxLifetime = env.optionalDuration("DB_POOL_CONN_MAX_LIFETIME")
	c.DB.Pool.ConnMaxIdleTime = env.optionalDuration("DB_POOL_CONN_MAX_IDLE_TIME")

	c.Session.Backend = strings.TrimSpace(os.Getenv("SESSION_BACKEND"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port = env.optionalInt("REDIS_PORT")
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	c.Redis.DB = env.optionalInt("REDIS_DB")
	c.Redis.PoolSize = env.optionalInt("REDIS_POOL_SIZE")
	c.Redis.MinIdleConns = env.optionalInt("REDIS_MIN_IDLE_CONNS")
	c.Redis.DialTimeout = env.optionalDuration("REDIS_DIAL_TIMEOUT")
	c.Redis.ReadTimeout = env.optionalDuration("REDIS_READ_TIMEOUT")
	c.Redis.WriteTimeout = env.optionalDuration("REDIS_WRITE_TIMEOUT")

	c.Auth.AccessSecret = os.Getenv("ACCESS_TOKEN_SECRET")
	c.Auth.RefreshSecret = os.Getenv("REFRESH_TOKEN_SECRET")
	c.Auth.Issuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.Audience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Refresh TTL is optional; defaults applied in Validate().
	c.Auth.RefreshTokenTTL = env.optionalDuration("JWT_REFRESH_TTL")

	c.Limits.PerSecond = env.optionalInt("RATE_LIMIT_RPS")
	c.Limits.Burst = env.optionalInt("RATE_LIMIT_BURST")

	if err := joinErrors(env.errs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	errs = append(errs, c.DB.Pool.validate()...)

	if c.Session.Backend == "" {
		c.Session.Backend = SessionBackendCookie
	}
	switch c.Session.Backend {
	case SessionBackendCookie:
	case SessionBackendRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required when SESSION_BACKEND=redis"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
		errs = append(errs, c.Redis.validate()...)
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND must be one of cookie, redis, got %q", c.Session.Backend))
	}

	if c.Auth.AccessSecret == "" {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_SECRET: %w", ErrMissingSecret))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_SECRET: %w", ErrMissingSecret))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.IsProduction() {
		if c.Auth.Issuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.Audience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	c.Auth.SecureCookies = c.IsProduction()

	c.Auth.AccessTokenTTL = AccessTokenTTL
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than the 15m access token lifetime"))
	}

	if c.Limits.PerSecond <= 0 {
		c.Limits.PerSecond = 5
	}
	if c.Limits.Burst <= 0 {
		c.Limits.Burst = 10
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// DSN is the pgx connection string. Avoid logging it; it contains secrets.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// Zero pool values are left for pkg/utils to default.
func (p DBPoolConfig) validate() []error {
	var errs []error
	if p.MaxOpenConns < 0 || p.MaxIdleConns < 0 {
		errs = append(errs, errors.New("DB_POOL_MAX_OPEN and DB_POOL_MAX_IDLE must not be negative"))
	}
	if p.MaxOpenConns > 0 && p.MaxIdleConns > p.MaxOpenConns {
		errs = append(errs, fmt.Errorf("DB_POOL_MAX_IDLE (%d) must not exceed DB_POOL_MAX_OPEN (%d)", p.MaxIdleConns, p.MaxOpenConns))
	}
	if p.ConnMaxLifetime < 0 || p.ConnMaxIdleTime < 0 {
		errs = append(errs, errors.New("DB_POOL_CONN_MAX_LIFETIME and DB_POOL_CONN_MAX_IDLE_TIME must not be negative"))
	}
	return errs
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c RedisConfig) validate() []error {
	var errs []error
	if c.DB < 0 || c.DB > 15 {
		errs = append(errs, fmt.Errorf("REDIS_DB must be between 0 and 15, got %d", c.DB))
	}
	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		errs = append(errs, errors.New("REDIS_POOL_SIZE and REDIS_MIN_IDLE_CONNS must not be negative"))
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		errs = append(errs, errors.New("redis timeouts must not be negative"))
	}
	return errs
}

// envReader collects parse errors so Load reports every bad variable at once.
// Unset optional keys read as zero and are defaulted downstream; a set
// but unparsable value is always an error.
type envReader struct {
	errs []error
}

func (r *envReader) requiredInt(key string) int {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		r.errs = append(r.errs, fmt.Errorf("%s is required", key))
		return 0
	}
	return r.optionalInt(key)
}

func (r *envReader) optionalInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return 0
	}
	return n
}

func (r *envReader) optionalDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a duration like 24h or 90m, got %q", key, v))
		return 0
	}
	return d
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

// joinErrors keeps every underlying error reachable through errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return &multiError{errs: errs}
}

type multiError struct {
	errs []error
}

func (m *multiError) Error() string {
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range m.errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (m *multiError) Unwrap() []error { return m.errs }
