package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediajob/internal/config"
	"github.com/maauso/mediajob/internal/job"
	"github.com/maauso/mediajob/internal/media"
	"github.com/maauso/mediajob/internal/persist"
	"github.com/maauso/mediajob/internal/storage"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := t.TempDir()
	vars := map[string]string{
		"TEMP_DIR":    filepath.Join(base, "tmp"),
		"CACHE_DIR":   filepath.Join(base, "caches"),
		"LIBRARY_DIR": filepath.Join(base, "library"),
	}
	for k, v := range env {
		vars[k] = v
	}
	cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(vars))
	require.NoError(t, err)
	return cfg
}

func TestNewDependencies_Local(t *testing.T) {
	cfg := testConfig(t, map[string]string{"WRITE_PERMISSION": "grant"})

	deps, err := NewDependencies(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, cfg.TempDir, deps.Workspace.TempDir())
	assert.Equal(t, cfg.CacheDir, deps.Workspace.CacheDir())
	assert.DirExists(t, cfg.LibraryDir)
	assert.IsType(t, &storage.DirectoryLibrary{}, deps.Library)
	assert.Equal(t, persist.StaticGate(true), deps.Gate)
	assert.IsType(t, &media.FFmpegEngine{}, deps.Engine)
	assert.Equal(t, media.DefaultProfile(), deps.Builder.Profile())
}

func TestNewDependencies_Gate(t *testing.T) {
	cfg := testConfig(t, map[string]string{"WRITE_PERMISSION": "deny"})
	deps, err := NewDependencies(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, persist.StaticGate(false), deps.Gate)

	cfg = testConfig(t, nil)
	devNull, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { _ = devNull.Close() })

	deps, err = NewDependencies(cfg, nil, WithPromptStreams(devNull, devNull, nil))
	require.NoError(t, err)
	require.IsType(t, &persist.PromptGate{}, deps.Gate)
	// Not a terminal, so the gate denies without prompting.
	assert.False(t, deps.Gate.EnsureWritePermission(context.Background()))
}

func TestNewDependencies_S3(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"S3_BUCKET":             "media",
		"S3_REGION":             "us-east-1",
		"S3_ENDPOINT":           "http://127.0.0.1:9000",
		"AWS_ACCESS_KEY_ID":     "test",
		"AWS_SECRET_ACCESS_KEY": "test",
	})

	deps, err := NewDependencies(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &storage.S3Store{}, deps.Library)
}

func TestNewDependencies_InvalidProfile(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.VideoPreset = ""

	_, err := NewDependencies(cfg, nil)
	assert.Error(t, err)
}

func TestDependencies_ControllerResolvesContent(t *testing.T) {
	content := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(content, "media"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "media", "120"), []byte("clip"), 0o600))

	cfg := testConfig(t, map[string]string{"CONTENT_ROOT": content, "WRITE_PERMISSION": "deny"})
	deps, err := NewDependencies(cfg, nil)
	require.NoError(t, err)

	ctrl := deps.NewController()
	require.True(t, ctrl.SelectSource(context.Background(), "content://media/120"))

	snap := ctrl.Snapshot()
	assert.Equal(t, job.StatusIdle, snap.Status)
	assert.Equal(t, filepath.Join(cfg.TempDir, "120"), snap.StagedPath)
}
