package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-assist-go/config"
	"github.com/soocke/pixel-assist-go/domain/capture"
)

func TestParseRGB(t *testing.T) {
	c, err := parseRGB("68, 80,95")
	require.NoError(t, err)
	assert.Equal(t, capture.ColorRGB{R: 68, G: 80, B: 95}, c)

	for _, bad := range []string{"", "1,2", "1,2,3,4", "1,x,3", "1,2,256", "-1,2,3"} {
		_, err := parseRGB(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.LevelInfo, &buf)
	logger.Debug("hidden")
	logger.Info("shown", "overlay", "chat")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "chat", rec["overlay"])
}

func TestOpenLogOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	w, closeFn, err := openLogOutput(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	closeFn()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(b))
}

func TestConfigInitAndCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"config", "init", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "wrote "+path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Profiles, len(config.DefaultConfig().Profiles))

	rootCmd.SetArgs([]string{"config", "init", path})
	assert.Error(t, rootCmd.Execute())

	out.Reset()
	rootCmd.SetArgs([]string{"config", "check", "--config", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "2 profiles")
}
