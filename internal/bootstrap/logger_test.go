package bootstrap

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/config"
)

func TestNewLogger_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{App: config.AppConfig{Name: "account-service", Env: config.EnvProduction}}

	logger := NewLogger(&buf, cfg)
	logger.Debug("hidden")
	logger.Info("hello", "user_id", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "account-service", line["app"])
	assert.EqualValues(t, 3, line["user_id"])
}

func TestNewLogger_DevelopmentIsVerbose(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{App: config.AppConfig{Name: "account-service", Env: config.EnvDevelopment}}

	NewLogger(&buf, cfg).Debug("query", "sql", "SELECT 1")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "sql=\"SELECT 1\"")
}
