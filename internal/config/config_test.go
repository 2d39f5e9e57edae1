package config

import (
	"context"
	"log/slog"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadMap(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadFrom(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{
		"CACHE_DIR":   "/var/cache/mediajob",
		"LIBRARY_DIR": "/srv/library",
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/mediajob", cfg.TempDir)
	assert.Equal(t, "/var/cache/mediajob", cfg.CacheDir)
	assert.Equal(t, "/srv/library", cfg.LibraryDir)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.Equal(t, 23, cfg.VideoCRF)
	assert.Equal(t, "slower", cfg.VideoPreset)
	assert.Equal(t, "copy", cfg.AudioPolicy)
	assert.Equal(t, "128k", cfg.AudioBitrate)
	assert.Equal(t, 500, cfg.FrameIndex)
	assert.Equal(t, 720, cfg.TargetHeight)
	assert.Equal(t, PermissionPrompt, cfg.WritePermission)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_DerivedDirectories(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{})
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.CacheDir)
	assert.Contains(t, cfg.CacheDir, "mediajob")
	assert.NotEmpty(t, cfg.LibraryDir)
	assert.Contains(t, cfg.LibraryDir, "mediajob")
}

func TestLoad_FromProcessEnvironment(t *testing.T) {
	t.Setenv("TEMP_DIR", "/custom/temp")
	t.Setenv("TARGET_HEIGHT", "480")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/custom/temp", cfg.TempDir)
	assert.Equal(t, 480, cfg.TargetHeight)
}

func TestLoad_CustomValues(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{
		"TEMP_DIR":              "/custom/temp",
		"CACHE_DIR":             "/custom/cache",
		"CONTENT_ROOT":          "/sdcard",
		"VIDEO_CRF":             "28",
		"VIDEO_PRESET":          "fast",
		"AUDIO_POLICY":          "aac",
		"FRAME_INDEX":           "0",
		"TARGET_HEIGHT":         "1080",
		"WRITE_PERMISSION":      "grant",
		"S3_BUCKET":             "my-bucket",
		"S3_REGION":             "us-east-1",
		"AWS_ACCESS_KEY_ID":     "access-key",
		"AWS_SECRET_ACCESS_KEY": "secret-key",
		"LOG_FORMAT":            "json",
		"LOG_LEVEL":             "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "/custom/temp", cfg.TempDir)
	assert.Equal(t, "/custom/cache", cfg.CacheDir)
	assert.Equal(t, "/sdcard", cfg.ContentRoot)
	assert.Equal(t, 28, cfg.VideoCRF)
	assert.Equal(t, "fast", cfg.VideoPreset)
	assert.Equal(t, "aac", cfg.AudioPolicy)
	assert.Equal(t, 0, cfg.FrameIndex)
	assert.Equal(t, 1080, cfg.TargetHeight)
	assert.Equal(t, PermissionGrant, cfg.WritePermission)
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, "access-key", cfg.AWSAccessKeyID)
	assert.Equal(t, "secret-key", cfg.AWSSecretAccessKey)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidInteger(t *testing.T) {
	// go-envconfig returns an error when parsing fails
	_, err := loadMap(t, map[string]string{"VIDEO_CRF": "not-a-number"})
	require.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"crf above range", map[string]string{"VIDEO_CRF": "52"}},
		{"unknown preset", map[string]string{"VIDEO_PRESET": "turbo"}},
		{"unknown audio policy", map[string]string{"AUDIO_POLICY": "opus"}},
		{"negative frame index", map[string]string{"FRAME_INDEX": "-1"}},
		{"zero height", map[string]string{"TARGET_HEIGHT": "0"}},
		{"unknown permission mode", map[string]string{"WRITE_PERMISSION": "maybe"}},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadMap(t, tt.env)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_S3Incomplete(t *testing.T) {
	_, err := loadMap(t, map[string]string{"S3_BUCKET": "bucket"})
	assert.ErrorIs(t, err, ErrS3Incomplete)
}

func TestConfig_S3Enabled(t *testing.T) {
	tests := []struct {
		name     string
		bucket   string
		region   string
		expected bool
	}{
		{"both set", "bucket", "region", true},
		{"only bucket", "bucket", "", false},
		{"only region", "", "region", false},
		{"neither set", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				S3Bucket: tt.bucket,
				S3Region: tt.region,
			}
			assert.Equal(t, tt.expected, cfg.S3Enabled())
		})
	}
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{
		TempDir:            "/tmp/test",
		CacheDir:           "/tmp/cache",
		TargetHeight:       720,
		S3Bucket:           "bucket",
		S3Region:           "region",
		AWSAccessKeyID:     "access-id",
		AWSSecretAccessKey: "secret-key",
		LogFormat:          "json",
		LogLevel:           "info",
	}

	str := cfg.String()

	assert.Contains(t, str, "/tmp/test")
	assert.Contains(t, str, "/tmp/cache")
	assert.Contains(t, str, "720")

	// Should NOT contain sensitive values
	assert.NotContains(t, str, "secret-key")
	assert.NotContains(t, str, "access-id")
}

func TestConfig_NewLogger(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			cfg := &Config{LogFormat: format, LogLevel: "warn"}
			logger := cfg.NewLogger()
			require.NotNil(t, logger)
			assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
			assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
