package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCustomStdLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig(&buf, true)
	cfg.AsyncWrite = false

	log, err := NewCustomStdLogger(cfg)
	require.NoError(t, err)

	log.Info("scored attempt", "similarity", 0.9)
	require.NoError(t, log.Close())
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typingsim.log")

	log, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, log.Close())
	require.FileExists(t, path)
}

func TestNewFileLoggerBadPath(t *testing.T) {
	_, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	require.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Debug("ignored", "k", "v")
	require.NoError(t, log.Close())
}
