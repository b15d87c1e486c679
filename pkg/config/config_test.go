package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

func TestValidateFillsDefaults(t *testing.T) {
	var c EngineConfig
	require.NoError(t, c.Validate())
	assert.Equal(t, runtime.NumCPU(), c.Workers)
	assert.Equal(t, DefaultEngineConfig().ParallelThreshold, c.ParallelThreshold)

	bad := EngineConfig{Workers: -1}
	assert.Error(t, bad.Validate())
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: ${SCIPP_TEST_WORKERS}\nparallel_threshold: 1000\n"), 0o644))
	t.Setenv("SCIPP_TEST_WORKERS", "3")

	var c EngineConfig
	require.NoError(t, Load(path, &c))
	require.NoError(t, c.Validate())
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, 1000, c.ParallelThreshold)
}

func TestLoadKeepsUnsetEnvRefs(t *testing.T) {
	// An unset ${VAR} stays literal and fails the integer parse, rather
	// than silently becoming zero.
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: ${SCIPP_TEST_UNSET_VAR}\n"), 0o644))

	var c EngineConfig
	err := Load(path, &c)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindInternal))
}

func TestLoadMissingFile(t *testing.T) {
	var c EngineConfig
	err := Load("/nonexistent/engine.yaml", &c)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindNotFound))
}

func TestLoadEngine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))

	cfg, err := LoadEngine(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	// Absent fields keep their defaults.
	assert.Equal(t, DefaultEngineConfig().ParallelThreshold, cfg.ParallelThreshold)

	require.NoError(t, os.WriteFile(path, []byte("workers: -1\n"), 0o644))
	_, err = LoadEngine(path)
	require.Error(t, err)
	assert.True(t, scipperrors.IsKind(err, scipperrors.KindInternal))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")

	c := EngineConfig{Workers: 4, ParallelThreshold: 2048}
	require.NoError(t, Save(path, &c))

	var loaded EngineConfig
	require.NoError(t, Load(path, &loaded))
	assert.Equal(t, c, loaded)
}
