package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	for _, k := range []string{"PORT", "DB_DRIVER", "JWT_SECRET", "ENV", "CORS_ALLOWED_ORIGINS", "STATS_CRON"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24, cfg.JWTExpireHours)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, "@every 1m", cfg.StatsCron)
	assert.Equal(t, 10, cfg.AuthRatePerMinute)
	assert.Equal(t, 90, cfg.AuditRetentionDays)
	assert.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courier.yaml")
	yml := "port: \"9000\"\ndb_driver: sqlite\ndb_path: /tmp/x.db\njwt_expire_hours: 2\ncors_allowed_origins:\n  - https://a.example\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("JWT_EXPIRE_HOURS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 2, cfg.JWTExpireHours)
	assert.Empty(t, cmp.Diff([]string{"https://a.example"}, cfg.CORSAllowedOrigins))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev default secret", Config{Env: "dev", JWTSecret: DefaultJWTSecret, DBDriver: "postgres"}, false},
		{"prod default secret", Config{Env: "prod", JWTSecret: DefaultJWTSecret, DBDriver: "postgres"}, true},
		{"prod custom secret", Config{Env: "prod", JWTSecret: "s3cr3t", DBDriver: "pgx"}, false},
		{"unknown driver", Config{Env: "dev", JWTSecret: "x", DBDriver: "oracle"}, true},
		{"half tls", Config{Env: "dev", JWTSecret: "x", DBDriver: "sqlite", TLSCertFile: "cert.pem"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseCORSOrigins(t *testing.T) {
	got := parseCORSOrigins(" https://a.example , ,http://localhost:3000")
	assert.Empty(t, cmp.Diff([]string{"https://a.example", "http://localhost:3000"}, got))
	assert.Nil(t, parseCORSOrigins(""))
}
