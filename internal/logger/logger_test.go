package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithServer(t *testing.T) {
	ctx, logs := TestContext()
	ctx = WithServer(ctx, "filesystem")

	FromContext(ctx).Info("probing")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "probing", entries[0].Message)
	assert.Equal(t, "filesystem", entries[0].ContextMap()["server"])
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, FromContext(NopContext()))
}

func TestInitWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	Init(false, dir)
	defer func() { logger = nil }()

	Info("state saved", "servers", 2)
	Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"state saved"`)
	assert.Contains(t, string(data), `"servers":2`)
}
