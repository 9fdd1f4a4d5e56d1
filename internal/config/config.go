package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is the development secret. Load refuses it when Env is "prod".
const DefaultJWTSecret = "supersecretkey"

type Config struct {
	Port string `yaml:"port"`

	// DBDriver selects the database/sql driver: postgres (lib/pq), pgx, mysql or sqlite.
	DBDriver string `yaml:"db_driver"`
	// DBDSN overrides the DSN composed from the DB* fields when set.
	DBDSN string `yaml:"db_dsn"`

	DBHost string `yaml:"db_host"`
	DBPort string `yaml:"db_port"`
	DBName string `yaml:"db_name"`
	DBUser string `yaml:"db_user"`
	DBPass string `yaml:"db_pass"`

	// DBPath is the database file used by the sqlite driver.
	DBPath string `yaml:"db_path"`

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int `yaml:"db_max_open_conns"`
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int `yaml:"db_max_idle_conns"`

	JWTSecret string `yaml:"jwt_secret"`

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string `yaml:"env"`

	// JWTExpireHours is the token lifetime in hours (default 24). Set via JWT_EXPIRE_HOURS.
	JWTExpireHours int `yaml:"jwt_expire_hours"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. https://app.example.com, http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// RedisAddr enables the redis-backed token revocation list. Empty keeps revocations in memory.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// StatsCron is the cron spec for refreshing the user/message gauges.
	StatsCron string `yaml:"stats_cron"`

	// AuthRatePerMinute caps login/register attempts per client IP.
	AuthRatePerMinute int `yaml:"auth_rate_per_minute"`

	// AuditRetentionDays is how long account activity is kept (default 90).
	AuditRetentionDays int `yaml:"audit_retention_days"`
}

// Load builds the configuration. A .env file in the working directory is read first (if present),
// then the YAML file named by CONFIG_FILE (if set); environment variables win over both.
func Load() (Config, error) {
	_ = godotenv.Load()

	var file Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		file, err = LoadFile(path)
		if err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Port: getEnv("PORT", or(file.Port, "8080")),

		DBDriver: getEnv("DB_DRIVER", or(file.DBDriver, "postgres")),
		DBDSN:    getEnv("DB_DSN", file.DBDSN),

		DBHost: getEnv("DB_HOST", or(file.DBHost, "localhost")),
		DBPort: getEnv("DB_PORT", or(file.DBPort, "5432")),
		DBName: getEnv("DB_NAME", or(file.DBName, "courier")),
		DBUser: getEnv("DB_USER", or(file.DBUser, "courier")),
		DBPass: getEnv("DB_PASS", or(file.DBPass, "courier")),
		DBPath: getEnv("DB_PATH", or(file.DBPath, "courier.db")),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", orInt(file.DBMaxOpenConns, 25)),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", orInt(file.DBMaxIdleConns, 5)),

		JWTSecret:      getEnv("JWT_SECRET", or(file.JWTSecret, DefaultJWTSecret)),
		Env:            getEnv("ENV", or(file.Env, "dev")),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", orInt(file.JWTExpireHours, 24)),

		// Optional TLS configuration for HTTPS.
		TLSCertFile: getEnv("TLS_CERT_FILE", file.TLSCertFile),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", file.TLSKeyFile),

		LogFormat: getEnv("LOG_FORMAT", or(file.LogFormat, "text")),
		LogLevel:  getEnv("LOG_LEVEL", or(file.LogLevel, "info")),

		CORSAllowedOrigins: file.CORSAllowedOrigins,

		RedisAddr:     getEnv("REDIS_ADDR", file.RedisAddr),
		RedisPassword: getEnv("REDIS_PASSWORD", file.RedisPassword),
		RedisDB:       getEnvInt("REDIS_DB", file.RedisDB),

		StatsCron:         getEnv("STATS_CRON", or(file.StatsCron, "@every 1m")),
		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", orInt(file.AuthRatePerMinute, 10)),

		AuditRetentionDays: getEnvInt("AUDIT_RETENTION_DAYS", orInt(file.AuditRetentionDays, 90)),
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = parseCORSOrigins(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML configuration file. Missing keys stay at their zero value.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings that are unsafe or unusable.
func (c Config) Validate() error {
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value when ENV=prod")
	}
	switch c.DBDriver {
	case "postgres", "pgx", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// TLSEnabled reports whether both TLS files are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
