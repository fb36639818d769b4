package util

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	dev := NewLogger("development", "server")
	assert.True(t, dev.Enabled(context.Background(), slog.LevelDebug))

	prod := NewLogger("production", "worker")
	assert.False(t, prod.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, prod.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewLogger_ServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "production", "admin").Info("token rotated", "user_id", "u1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "blogit", record["service"])
	assert.Equal(t, "admin", record["component"])
	assert.Equal(t, "u1", record["user_id"])

	buf.Reset()
	newLogger(&buf, "development", "server").Debug("listening")
	assert.Contains(t, buf.String(), "service=blogit")
	assert.Contains(t, buf.String(), "component=server")
}
