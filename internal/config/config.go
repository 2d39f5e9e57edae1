// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidConfig is returned when a configuration value fails validation.
	ErrInvalidConfig = errors.New("config: invalid value")
	// ErrS3Incomplete is returned when only one of S3_BUCKET and S3_REGION is set.
	ErrS3Incomplete = errors.New("config: S3_BUCKET and S3_REGION must be set together")
)

// Write permission modes.
const (
	PermissionPrompt = "prompt"
	PermissionGrant  = "grant"
	PermissionDeny   = "deny"
)

// Config holds all configuration for the application.
type Config struct {
	// Working areas
	TempDir    string `env:"TEMP_DIR, default=/tmp/mediajob" json:"temp_dir" validate:"required"`
	CacheDir   string `env:"CACHE_DIR" json:"cache_dir"`
	LibraryDir string `env:"LIBRARY_DIR" json:"library_dir"`

	// ContentRoot backs content:// references. Empty disables the scheme.
	ContentRoot string `env:"CONTENT_ROOT" json:"content_root,omitempty"`

	// Engine binaries
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path" validate:"required"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path" validate:"required"`

	// Transcode profile
	VideoCRF     int    `env:"VIDEO_CRF, default=23" json:"video_crf" validate:"min=0,max=51"`
	VideoPreset  string `env:"VIDEO_PRESET, default=slower" json:"video_preset" validate:"oneof=ultrafast superfast veryfast faster fast medium slow slower veryslow"`
	AudioPolicy  string `env:"AUDIO_POLICY, default=copy" json:"audio_policy" validate:"oneof=copy aac"`
	AudioBitrate string `env:"AUDIO_BITRATE, default=128k" json:"audio_bitrate" validate:"required"`

	// Operation defaults
	FrameIndex   int `env:"FRAME_INDEX, default=500" json:"frame_index" validate:"min=0"`
	TargetHeight int `env:"TARGET_HEIGHT, default=720" json:"target_height" validate:"min=2,max=4320"`

	// WritePermission controls how the library write permission is obtained.
	WritePermission string `env:"WRITE_PERMISSION, default=prompt" json:"write_permission" validate:"oneof=prompt grant deny"`

	// Optional S3 library settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3Prefix           string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig,
// fills derived directories and validates the result.
func Load() (*Config, error) {
	return load(context.Background(), envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given lookuper. It is used by tests
// and by callers that assemble configuration from something other than the
// process environment.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	return load(ctx, lookuper)
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills directories whose defaults depend on the user's environment.
func (c *Config) applyDefaults() {
	if c.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		c.CacheDir = filepath.Join(base, "mediajob")
	}
	if c.LibraryDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		c.LibraryDir = filepath.Join(home, "Videos", "mediajob")
	}
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if (c.S3Bucket == "") != (c.S3Region == "") {
		return ErrS3Incomplete
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for machine parsing.
// Otherwise, it outputs human-readable text logs. Output goes to stderr so
// that command output on stdout stays clean.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{TempDir: %s, CacheDir: %s, LibraryDir: %s, ContentRoot: %s, FFmpegPath: %s, FFprobePath: %s, VideoCRF: %d, VideoPreset: %s, AudioPolicy: %s, FrameIndex: %d, TargetHeight: %d, WritePermission: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.TempDir,
		c.CacheDir,
		c.LibraryDir,
		c.ContentRoot,
		c.FFmpegPath,
		c.FFprobePath,
		c.VideoCRF,
		c.VideoPreset,
		c.AudioPolicy,
		c.FrameIndex,
		c.TargetHeight,
		c.WritePermission,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
