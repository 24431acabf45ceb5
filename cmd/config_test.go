package cmd

import (
	"testing"
	"time"

	"courierdesk/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "STORE_DRIVER", "FEED_DRIVER", "AUTH_DRIVER", "TRACKING_INTERVAL", "TRACKING_SIMULATION"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, DriverMemory, cfg.FeedDriver)
	assert.Equal(t, AuthJWT, cfg.AuthDriver)
	assert.Equal(t, 3*time.Second, cfg.TrackingInterval)
	assert.True(t, cfg.TrackingSimulation)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("FEED_DRIVER", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TRACKING_INTERVAL", "500ms")
	t.Setenv("TRACKING_SIMULATION", "false")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "secret")

	cfg := LoadConfig()

	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, DriverRedis, cfg.FeedDriver)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 500*time.Millisecond, cfg.TrackingInterval)
	assert.False(t, cfg.TrackingSimulation)
	assert.Contains(t, cfg.DSN(), "host=db")
	assert.Contains(t, cfg.DSN(), "password=secret")
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		StoreDriver:      DriverMemory,
		FeedDriver:       DriverMemory,
		AuthDriver:       AuthJWT,
		JWTSecret:        "s3cret",
		TrackingInterval: time.Second,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown_store", func(c *Config) { c.StoreDriver = "mongo" }, "STORE_DRIVER"},
		{"unknown_feed", func(c *Config) { c.FeedDriver = "kafka" }, "FEED_DRIVER"},
		{"postgres_feed_without_postgres_store", func(c *Config) { c.FeedDriver = DriverPostgres }, "requires STORE_DRIVER=postgres"},
		{"firestore_feed_without_firestore_store", func(c *Config) { c.FeedDriver = DriverFirestore }, "requires STORE_DRIVER=firestore"},
		{"missing_jwt_secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"unknown_auth", func(c *Config) { c.AuthDriver = "basic" }, "AUTH_DRIVER"},
		{"firebase_without_project", func(c *Config) { c.AuthDriver = AuthFirebase }, "FIREBASE_PROJECT_ID"},
		{"non_positive_interval", func(c *Config) { c.TrackingInterval = 0 }, "TRACKING_INTERVAL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewCompositionRoot_MemoryStack(t *testing.T) {
	cfg := Config{
		StoreDriver:      DriverMemory,
		FeedDriver:       DriverMemory,
		AuthDriver:       AuthJWT,
		JWTSecret:        "s3cret",
		TrackingInterval: time.Second,
	}

	root, err := NewCompositionRoot(t.Context(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, root.Close()) })

	assert.NotNil(t, root.NewServer())
	assert.NotNil(t, root.Verifier())
	assert.Nil(t, root.tracker())
	require.NoError(t, root.JobManager().StartAll(t.Context()))
	root.JobManager().StopAll()
}

func TestNewCompositionRoot_RejectsInvalidConfig(t *testing.T) {
	_, err := NewCompositionRoot(t.Context(), Config{}, logging.Discard())
	require.Error(t, err)
}
