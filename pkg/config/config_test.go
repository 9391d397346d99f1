package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORE_DRIVER", "SEARCH_DEFAULT_LIMIT", "CHECKIN_ENFORCE_PROXIMITY", "APP_TIMEZONE", "ENV", "JWT_SECRET"} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 10, cfg.Listing.DefaultLimit)
	assert.Equal(t, 10, cfg.Popularity.TopN)
	assert.False(t, cfg.Checkin.EnforceProximity)
	assert.Equal(t, 200.0, cfg.Checkin.MaxDistanceMeters)
	assert.Equal(t, "UTC", cfg.Clock.Timezone)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("CHECKIN_ENFORCE_PROXIMITY", "true")
	t.Setenv("CHECKIN_MAX_DISTANCE_METERS", "75.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.True(t, cfg.Checkin.EnforceProximity)
	assert.Equal(t, 75.5, cfg.Checkin.MaxDistanceMeters)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)

	loc, err := cfg.Clock.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "cassandra")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		t.Setenv("APP_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production without secret", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDSNHelpers(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "gotham", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=gotham sslmode=disable", db.DatabaseDSN())

	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.RedisAddr())
}
