package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamperstat/domain/run"
	"tamperstat/internal/config"
	"tamperstat/internal/errors"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvLogLevel, "ERROR")
	t.Setenv(config.EnvOutputDir, dir)
	t.Setenv(config.EnvArchiveDriver, "sqlite3")
	t.Setenv(config.EnvArchiveDSN, filepath.Join(dir, "archive.db"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTable(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "results.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRates(t *testing.T) {
	dir := setupEnv(t)
	path := writeTable(t, dir, "name acceptable count max_length interleaved\npop1 true 3 100 false\npop1 false 10 9000 false\n")

	out, err := execute(t, "rates", path)
	require.NoError(t, err)
	assert.Equal(t, "pop1: 1/2 50.00%\n", out)

	out, err = execute(t, "rates", "--max-count", "2", path)
	require.NoError(t, err)
	assert.Equal(t, "pop1: 1/2 50.00%\n\npop1: 0/2 0.00%\n", out)
}

func TestCheck_Violation(t *testing.T) {
	dir := setupEnv(t)
	path := writeTable(t, dir, "name acceptable unique count max_length\npop1 true false 3 100\npop1 false false 4 9000\n")

	_, err := execute(t, "check", path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, 2, errors.ExitCode(err))
}

func TestCheck_SkipsWithoutFields(t *testing.T) {
	dir := setupEnv(t)
	path := writeTable(t, dir, "name tampered count\npop1 true 3\n")

	out, err := execute(t, "check", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "skipped:"))
}

func TestParseErrorExitCode(t *testing.T) {
	dir := setupEnv(t)
	path := writeTable(t, dir, "name acceptable count\npop1 true\n")

	_, err := execute(t, "rates", path)
	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
}

func TestSynthReportArchive(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "synth", "--trials", "20")
	require.NoError(t, err)
	tamper := filepath.Join(dir, "tamper.txt")
	assert.Contains(t, out, tamper)

	xlsx := filepath.Join(dir, "report.xlsx")
	page := filepath.Join(dir, "report.html")
	out, err = execute(t, "report", "--archive", "--xlsx", xlsx, "--html", page, tamper)
	require.NoError(t, err)
	assert.Contains(t, out, "# Results for "+tamper)
	assert.FileExists(t, xlsx)
	assert.FileExists(t, page)

	out, err = execute(t, "runs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], tamper)

	id := strings.Fields(lines[0])[0]
	out, err = execute(t, "runs", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "run "+id)
	assert.Contains(t, out, "correlation")
}

func TestShowRun_NotFound(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "runs", "show", "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestShowRun_JSON(t *testing.T) {
	dir := setupEnv(t)
	_, err := execute(t, "synth", "--trials", "10")
	require.NoError(t, err)
	_, err = execute(t, "report", "--archive", filepath.Join(dir, "spacing.txt"))
	require.NoError(t, err)

	out, err := execute(t, "runs")
	require.NoError(t, err)
	id := strings.Fields(out)[0]

	out, err = execute(t, "runs", "show", "--json", id)
	require.NoError(t, err)
	var export run.Export
	require.NoError(t, json.Unmarshal([]byte(out), &export))
	require.NoError(t, export.Validate())
	assert.Equal(t, id, export.Run.ID.String())
	assert.NotEmpty(t, export.Metrics)
}
