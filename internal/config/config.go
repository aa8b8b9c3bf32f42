// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the SQLite file location, rate limiting, web protection and
// observability settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings. An empty
// AllowedOrigins permits any origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // grace period for in-flight requests
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // prefix of the employee routes

	// Storage
	DBPath string // SQLite file

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is replayed

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              env("PORT", "5000", asString),
		ReadTimeout:       env("READ_TIMEOUT", 15*time.Second, time.ParseDuration),
		ReadHeaderTimeout: env("READ_HEADER_TIMEOUT", 10*time.Second, time.ParseDuration),
		WriteTimeout:      env("WRITE_TIMEOUT", 20*time.Second, time.ParseDuration),
		IdleTimeout:       env("IDLE_TIMEOUT", 60*time.Second, time.ParseDuration),
		ShutdownTimeout:   env("SHUTDOWN_TIMEOUT", 10*time.Second, time.ParseDuration),
		MaxHeaderBytes:    env("MAX_HEADER_BYTES", 1<<20, strconv.Atoi),
		MaxBodyBytes:      env("MAX_BODY_BYTES", int64(1<<20), asInt64),
		GinMode:           strings.ToLower(env("GIN_MODE", "release", asString)),

		LogLevel:       strings.ToLower(env("LOG_LEVEL", "info", asString)),
		LogPretty:      env("LOG_PRETTY", false, asBool),
		SwaggerEnabled: env("SWAGGER_ENABLED", false, asBool),
		APIBasePath:    normalizeBasePath(env("API_BASE_PATH", "/api", asString)),

		DBPath: env("DB_PATH", "employee_data.db", asString),

		RateRPS:   env("RATE_RPS", 20.0, asFloat),
		RateBurst: env("RATE_BURST", 40, strconv.Atoi),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(env("CORS_ALLOWED_ORIGINS", "", asString)),
		},
		Security: SecurityConfig{
			EnableHSTS: env("ENABLE_HSTS", false, asBool),
			HSTSMaxAge: env("HSTS_MAX_AGE", 180*24*time.Hour, time.ParseDuration),
		},

		IdempotencyTTL: env("IDEMPOTENCY_TTL", 24*time.Hour, time.ParseDuration),

		OTEL: OTELConfig{
			Enabled:     env("OTEL_ENABLED", false, asBool),
			Endpoint:    env("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317", asString),
			Insecure:    env("OTEL_EXPORTER_OTLP_INSECURE", true, asBool),
			ServiceName: env("OTEL_SERVICE_NAME", "go-employee-backend", asString),
			SampleRatio: env("OTEL_TRACES_SAMPLER_ARG", 1.0, asFloat),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.validate()
}

// validate reports the first setting that is out of range.
func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return errors.New("PORT must be a number between 1 and 65535")
	}

	checks := []struct {
		bad bool
		msg string
	}{
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0, "timeouts must be positive durations"},
		{c.ShutdownTimeout <= 0, "SHUTDOWN_TIMEOUT must be > 0"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{c.MaxBodyBytes <= 0, "MAX_BODY_BYTES must be > 0"},
		{strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	for _, chk := range checks {
		if chk.bad {
			return errors.New(chk.msg)
		}
	}
	return nil
}

// Addr returns the listen address for http.Server.
func (c Config) Addr() string { return ":" + c.Port }

// env returns key parsed by parse. Unset, empty and unparsable values yield def.
func env[T any](key string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func asString(s string) (string, error) { return s, nil }

func asInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func asFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

var errNotBool = errors.New("not a boolean")

// asBool accepts 1/true/yes/y/on and 0/false/no/n/off, case-insensitively.
func asBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, errNotBool
}

// splitCSV splits a comma list, dropping blanks; "" yields nil.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
