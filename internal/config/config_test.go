package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesRecognizedTopLevelPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"connector": {"csv": {"url": "file:///a.csv", "delimiter": ","}},
		"batch": {"maxBatchSize": 100}
	}`), 0o644))

	tree, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file:///a.csv", tree.GetString("connector.csv.url", ""))
	assert.Equal(t, ",", tree.GetString("connector.csv.delimiter", ""))
	assert.Equal(t, 100, tree.GetInt("batch.maxBatchSize", 0))
}

func TestLoadRejectsUnrecognizedTopLevelPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bogus": {"x": 1}}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSetRejectsUnrecognizedTopLevelPath(t *testing.T) {
	tree := New()
	err := tree.Set("bogus.x", "y")
	assert.Error(t, err)
}

func TestSetAndGetNestedDottedPath(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Set("driver.host", "localhost"))
	require.NoError(t, tree.Set("driver.port", 5432))

	assert.Equal(t, "localhost", tree.GetString("driver.host", ""))
	assert.Equal(t, 5432, tree.GetInt("driver.port", 0))
}

func TestApplyEnvOverlayOverridesExistingValue(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Set("driver.host", "localhost"))

	t.Setenv("DSBULK_DRIVER_HOST", "cassandra.example.com")
	tree.ApplyEnvOverlay("dsbulk")

	assert.Equal(t, "cassandra.example.com", tree.GetString("driver.host", ""))
}

func TestApplyEnvOverlayIgnoresUnrecognizedTopLevelPath(t *testing.T) {
	tree := New()
	t.Setenv("DSBULK_BOGUS_X", "1")
	tree.ApplyEnvOverlay("dsbulk")

	_, ok := tree.Get("bogus.x")
	assert.False(t, ok)
}

func TestGetIntParsesStringFromEnvOverlay(t *testing.T) {
	tree := New()
	t.Setenv("DSBULK_BATCH_MAXBATCHSIZE", "256")
	tree.ApplyEnvOverlay("dsbulk")

	assert.Equal(t, 256, tree.GetInt("batch.maxBatchSize", 0))
}

func TestResolveAliasExpandsShortName(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Set("url", "file:///a.csv"))

	assert.Equal(t, "file:///a.csv", tree.GetString("connector.csv.url", ""))
}

func TestExecutionDirTemplateExpandsPlaceholders(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dir := ExecutionDirTemplate("{operation}_{timestamp}", "LOAD", now)
	assert.Equal(t, "LOAD_20260102_030405", dir)
}

func TestExecutionDirTemplateDefaultsToUUIDWhenEmpty(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dir := ExecutionDirTemplate("", "UNLOAD", now)
	assert.Contains(t, dir, "UNLOAD_20260102_030405_")
}
