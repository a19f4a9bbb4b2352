package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vegaedge/pkg/config"
)

func dbConfig(url string, maxConns, minConns int) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        maxConns,
			MinConns:        minConns,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}
}

func TestPoolConfig(t *testing.T) {
	pc, err := PoolConfig(dbConfig("postgres://quant:pw@localhost:5432/vegaedge", 8, 2))
	require.NoError(t, err)

	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, "vegaedge", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "vegaedge", pc.ConnConfig.Database)
}

func TestPoolConfigKeepsURLApplicationName(t *testing.T) {
	pc, err := PoolConfig(dbConfig("postgres://localhost/vegaedge?application_name=collector", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "collector", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"missing url", &config.Config{}},
		{"invalid url", dbConfig("invalid://url", 10, 1)},
		{"min above max", dbConfig("postgres://localhost/vegaedge", 2, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PoolConfig(tt.cfg)
			assert.Error(t, err)

			_, err = New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := New(dbConfig(os.Getenv("DATABASE_URL"), 2, 1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(2), status.Stats.MaxConns)

	db.Close()
	assert.NotPanics(t, db.Close)
}
