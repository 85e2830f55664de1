package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_URL", "http://app.local/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "http://app.local", cfg.FrontendURL)
	assert.Equal(t, []string{"http://app.local"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Stripe.CheckoutTTL)
	assert.Equal(t, 3*time.Minute, cfg.Dashboard.StatsCacheTTL)
	assert.Equal(t, 5, cfg.RateLimit.CheckoutPerMinute)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
}

func TestValidateProductionRequiresSecrets(t *testing.T) {
	cfg := &Config{
		Env:     EnvProduction,
		Port:    8080,
		JWT:     JWTConfig{Secret: "dev_secret"},
		Storage: StorageConfig{Driver: StorageDriverGCS},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
	assert.Contains(t, err.Error(), "STORAGE_BUCKET")
}

func TestValidateDevelopmentLocalStorage(t *testing.T) {
	cfg := &Config{
		Env:     EnvDevelopment,
		Port:    8080,
		Storage: StorageConfig{Driver: StorageDriverLocal, SigningSecret: "s"},
	}
	require.NoError(t, cfg.Validate())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
