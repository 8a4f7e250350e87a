package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_LevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payroll.log")

	closer, err := Init("WARN", path)
	require.NoError(t, err)
	Get().Info().Msg("dropped")
	Get().Warn().Msg("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "dropped")
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	_, err := Init("chatty", "")
	assert.Error(t, err)
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	Set(zerolog.New(&buf))

	FromContext(context.Background()).Info().Msg("global")
	assert.Contains(t, buf.String(), `"message":"global"`)

	buf.Reset()
	ctx := WithContext(context.Background(), map[string]interface{}{"request_id": "abc"})
	FromContext(ctx).Info().Msg("scoped")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)
}
