package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "URSI_SOURCE", "URSI_INPUT", "URSI_SYMBOLS", "URSI_OUTPUT_DIR",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SQLITE_PATH", "URSI_MA_WINDOW",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, dir, input string) string {
	t.Helper()
	cfg := fmt.Sprintf(`source:
  type: csv
  path: %s
output:
  dir: %s
indicator:
  ma_window: 2
database:
  sqlite_path: %s
log:
  level: error
`, input, filepath.Join(dir, "out"), filepath.Join(dir, "runs.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestRealMain_UnknownCommand(t *testing.T) {
	clearEnv(t)
	var stderr bytes.Buffer
	assert.Equal(t, 2, realMain([]string{"dance"}, &stderr))
	assert.Contains(t, stderr.String(), "usage: ursi")
}

func TestRealMain_InvalidConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  type: ftp\n"), 0o644))

	var stderr bytes.Buffer
	assert.Equal(t, 1, realMain([]string{"-config", path}, &stderr))
	assert.Contains(t, stderr.String(), "config validation")
}

func TestRealMain_RunFailureReturnsExitCode(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, filepath.Join(dir, "missing.csv"))

	var stderr bytes.Buffer
	assert.Equal(t, 1, realMain([]string{"-config", path, "run"}, &stderr))
}

func TestRealMain_Run(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "ohlcv.csv")
	require.NoError(t, os.WriteFile(input, []byte(`stock,day,close
A,2024-01-02,10
B,2024-01-02,20
A,2024-01-03,11
B,2024-01-03,19
A,2024-01-04,12
B,2024-01-04,19
`), 0o644))
	path := writeConfig(t, dir, input)

	var stderr bytes.Buffer
	require.Equal(t, 0, realMain([]string{"-config", path, "run"}, &stderr), stderr.String())
	for _, name := range []string{"ursi_data.csv", "ursi_analysis.xlsx", "ursi_interactive_ma.html"} {
		assert.FileExists(t, filepath.Join(dir, "out", name))
	}
	assert.FileExists(t, filepath.Join(dir, "runs.db"))
}
