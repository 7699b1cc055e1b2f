package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// unsetEnv removes keys for the duration of a test. t.Setenv registers the
// restore; os.Unsetenv does the actual removal.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	unsetEnv(t,
		"ENVIRONMENT", "SERVER_PORT",
		"CODE_LENGTH", "ALLOC_MAX_ATTEMPTS",
		"DB_TIMEOUT_SECONDS", "CORS_ALLOWED_ORIGINS",
	)

	cfg, err := LoadConfig()

	assert.NoError(t, err)
	assert.Equal(t, "4324", cfg.ServerPort)
	assert.Equal(t, 8, cfg.CodeLength)
	assert.Equal(t, 5, cfg.AllocMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	unsetEnv(t, "ENVIRONMENT")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CODE_LENGTH", "6")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()

	assert.NoError(t, err)
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 6, cfg.CodeLength)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestValidate_CodeLengthBounds(t *testing.T) {
	t.Setenv("CODE_LENGTH", "3")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("CODE_LENGTH", "13")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestValidate_ProductionRequiresDBPassword(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_PASSWORD", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestGetEnvAsInt_BadValueFallsBack(t *testing.T) {
	unsetEnv(t, "ENVIRONMENT", "CODE_LENGTH")
	t.Setenv("ALLOC_MAX_ATTEMPTS", "not-a-number")

	cfg, err := LoadConfig()

	assert.NoError(t, err)
	assert.Equal(t, 5, cfg.AllocMaxAttempts)
}
