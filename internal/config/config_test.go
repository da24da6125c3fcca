package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DEFAULT_GRACE_DAYS", "")
	t.Setenv("JWT_TTL_HOURS", "")

	c := Load()

	assert.Equal(t, StoreMongo, c.StoreDriver)
	assert.Equal(t, 3, c.Defaults.GracePeriodDays)
	assert.Equal(t, 12*time.Hour, c.JWT.TTL)
	assert.Equal(t, "@every 1m", c.Backup.CheckSpec)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", StorePostgres)
	t.Setenv("DEFAULT_FINE_AMOUNT", "12.5")
	t.Setenv("DEFAULT_GRACE_DAYS", "not-a-number")
	t.Setenv("SMTP_PORT", "2525")

	c := Load()

	assert.Equal(t, StorePostgres, c.StoreDriver)
	assert.Equal(t, 12.5, c.Defaults.FineAmount)
	assert.Equal(t, 3, c.Defaults.GracePeriodDays)
	assert.Equal(t, 2525, c.SMTP.Port)
}

func TestCheckConnectionsReportsAll(t *testing.T) {
	err := (&Config{StoreDriver: StorePostgres}).CheckConnections(t.Context())

	assert.ErrorContains(t, err, "postgres not initialized")
	assert.ErrorContains(t, err, "mongo not initialized")
	assert.ErrorContains(t, err, "s3 not initialized")
}

func TestCheckConnectionsSkipsUnusedPostgres(t *testing.T) {
	for _, driver := range []string{StoreMongo, StoreMemory} {
		err := (&Config{StoreDriver: driver}).CheckConnections(t.Context())

		require.Error(t, err, driver)
		assert.NotContains(t, err.Error(), "postgres", driver)
		assert.ErrorContains(t, err, "mongo not initialized", driver)
	}
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	c := Load()

	assert.Empty(t, c.JWT.Secret)
	assert.EqualError(t, c.Validate(), "JWT_SECRET is required")

	c.JWT.Secret = "s3cret"
	assert.NoError(t, c.Validate())

	c.StoreDriver = "sqlite"
	assert.ErrorContains(t, c.Validate(), `unknown STORE_DRIVER "sqlite"`)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("loud").GetLevel())
}
