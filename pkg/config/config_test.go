package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-movimientos/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 10*time.Second, cfg.DB.TxTimeout())
	assert.Equal(t, int32(25), cfg.DB.MaxConns)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 5, cfg.Inventory.NumberMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("DB_TX_TIMEOUT_SECONDS", "3")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("INVENTORY_NUMBER_MAX_ATTEMPTS", "8")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.DB.TxTimeout())
	assert.True(t, cfg.DB.AutoMigrate)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 8, cfg.Inventory.NumberMaxAttempts)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoad_SinSecretoJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()

	assert.Error(t, err)
}

func TestDSN_EscapaContrasena(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "inventario", SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/inventario?sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://x", config.DBConfig{DatabaseURL: "postgres://x"}.ConnectionString())
}

func TestLoadForMigrations_NoExigeSecretoJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://app@db:5432/inventario")

	cfg, err := config.LoadForMigrations()

	require.NoError(t, err)
	assert.Equal(t, "postgres://app@db:5432/inventario", cfg.DB.ConnectionString())
}
