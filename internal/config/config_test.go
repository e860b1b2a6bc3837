package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("TYPING_TIMEOUT_MS", "")
	t.Setenv("DB_DRIVER", "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Second, cfg.TypingTimeout)
	assert.Equal(t, "messages.new", cfg.KafkaTopic)
	assert.Equal(t, "auth.codes", cfg.KafkaAuthTopic)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("TYPING_TIMEOUT_MS", "250")
	t.Setenv("ADMIN_EMAIL", "Admin@Campus.edu")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("S3_USE_SSL", "true")

	cfg := Load()

	assert.Equal(t, 250*time.Millisecond, cfg.TypingTimeout)
	assert.Equal(t, "admin@campus.edu", cfg.AdminEmail)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.S3UseSSL)
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}

func TestMissingProductionVars(t *testing.T) {
	cfg := &Config{DBDriver: "postgres"}
	assert.ElementsMatch(t, []string{"JWT_SECRET_KEY", "DATABASE_URL"}, cfg.missingProductionVars())

	cfg = &Config{JWTSecretKey: "k", DBDriver: "sqlite", DatabaseURL: "x.db"}
	assert.Empty(t, cfg.missingProductionVars())
}
