package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQueryExecutionFileParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
query_execution_timeout_ms: 5000
query_plan_cache: false
graph_view_default: OLD
`), 0o644))

	qe, err := LoadQueryExecutionFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, qe.TimeoutMS)
	assert.False(t, qe.PlanCacheEnabled)
	assert.Equal(t, "OLD", qe.DefaultGraphView)
}

func TestLoadQueryExecutionFileMissingErrors(t *testing.T) {
	_, err := LoadQueryExecutionFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadQueryExecutionFromEnvOrFileFallsBackToDefaults(t *testing.T) {
	qe := LoadQueryExecutionFromEnvOrFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 10000, qe.TimeoutMS)
	assert.True(t, qe.PlanCacheEnabled)
	assert.Equal(t, "NEW", qe.DefaultGraphView)
}

func TestLoadQueryExecutionFromEnvOrFileEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
query_execution_timeout_ms: 5000
query_plan_cache: true
graph_view_default: OLD
`), 0o644))

	t.Setenv("NORNICDB_QUERY_EXECUTION_TIMEOUT_MS", "9000")
	t.Setenv("NORNICDB_QUERY_PLAN_CACHE", "false")
	t.Setenv("NORNICDB_GRAPH_VIEW_DEFAULT", "NEW")

	qe := LoadQueryExecutionFromEnvOrFile(path)
	assert.Equal(t, 9000, qe.TimeoutMS)
	assert.False(t, qe.PlanCacheEnabled)
	assert.Equal(t, "NEW", qe.DefaultGraphView)
}

func TestParseBoolEnv(t *testing.T) {
	assert.True(t, parseBoolEnv("yes", false))
	assert.False(t, parseBoolEnv("off", true))
	assert.True(t, parseBoolEnv("garbage", true))
}

func TestValidateRejectsBadQueryExecutionSettings(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.QueryExecution.TimeoutMS = -1
	cfg.QueryExecution.DefaultGraphView = "NEW"
	err := cfg.Validate()
	require.Error(t, err)

	cfg.QueryExecution.TimeoutMS = 1000
	cfg.QueryExecution.DefaultGraphView = "SIDEWAYS"
	err = cfg.Validate()
	require.Error(t, err)

	cfg.QueryExecution.DefaultGraphView = "OLD"
	assert.NoError(t, cfg.Validate())
}
