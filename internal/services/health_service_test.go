package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataexplorer/internal/shared/testutil"
)

type staticStats map[string]interface{}

func (s staticStats) Stats() map[string]interface{} { return s }

type staticClients int

func (c staticClients) ClientCount() int { return int(c) }

func TestHealthService_ReadinessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name     string
		explorer DatasetStats
		hub      ClientCounter
		want     string
	}{
		{"all ready", staticStats{"datasets": 2}, staticClients(3), "ready"},
		{"no explorer", nil, staticClients(0), "not_ready"},
		{"no hub", staticStats{"datasets": 0}, nil, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("1.2.3", "", "", tt.explorer, tt.hub, logger)
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Equal(t, "1.2.3", status.Version)
			assert.Len(t, status.Services, 2)
		})
	}
}

func TestHealthService_DatasetDetails(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.0.0", "", "", staticStats{"datasets": 2}, staticClients(1), logger)

	status := hs.ReadinessCheck(context.Background())
	datasets, ok := status.Services["datasets"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "2 datasets loaded", datasets.Message)
	assert.Equal(t, 2, datasets.Details["datasets"])

	ws := status.Services["websocket"].(ServiceHealth)
	assert.Equal(t, "1 live view clients", ws.Message)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.0.0", "2024-05-01", "abc123", nil, nil, logger)

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, "2024-05-01", v["build_time"])
	assert.Equal(t, "abc123", v["build_id"])
}

func TestHealthService_ExplorerStats(t *testing.T) {
	s := newTestService(t)
	uploadSample(t, s)

	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.0.0", "", "", s, staticClients(0), logger)
	datasets := hs.ReadinessCheck(context.Background()).Services["datasets"].(ServiceHealth)
	assert.Equal(t, "1 datasets loaded", datasets.Message)
}
