// Package bootstrap provides dependency initialization for mediajob.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/maauso/mediajob/internal/config"
	"github.com/maauso/mediajob/internal/job"
	"github.com/maauso/mediajob/internal/media"
	"github.com/maauso/mediajob/internal/persist"
	"github.com/maauso/mediajob/internal/source"
	"github.com/maauso/mediajob/internal/storage"
)

// Dependencies holds the pipeline collaborators a Controller is built from.
type Dependencies struct {
	Workspace *storage.Workspace
	Resolver  *source.Resolver
	Builder   *media.Builder
	Engine    media.Engine
	Library   storage.Library
	Gate      persist.Gate
	Persister *persist.Persister

	logger *slog.Logger
}

// Option customizes dependency construction.
type Option func(*options)

type options struct {
	promptTTY *os.File
	promptIn  io.Reader
	promptOut io.Writer
	engine    media.Engine
}

// WithPromptStreams sets the streams used by the interactive permission gate.
// tty decides whether prompting is possible; answers are read from in.
func WithPromptStreams(tty *os.File, in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.promptTTY = tty
		o.promptIn = in
		o.promptOut = out
	}
}

// WithEngine replaces the ffmpeg engine.
func WithEngine(e media.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Dependencies, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{promptTTY: os.Stdin, promptIn: os.Stdin, promptOut: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	ws, err := storage.NewWorkspace(cfg.TempDir, cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	// The S3 store doubles as the s3:// opener and the library.
	var s3Store *storage.S3Store
	if cfg.S3Enabled() {
		s3Store, err = storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
	}

	resolver := initResolver(cfg, ws, s3Store, logger)

	builder, err := media.NewBuilder(media.Profile{
		CRF:          cfg.VideoCRF,
		Preset:       cfg.VideoPreset,
		AudioPolicy:  cfg.AudioPolicy,
		AudioBitrate: cfg.AudioBitrate,
	})
	if err != nil {
		return nil, err
	}

	engine := o.engine
	if engine == nil {
		engine = media.NewFFmpegEngine(cfg.FFmpegPath, cfg.FFprobePath, logger)
	}

	library, err := initLibrary(cfg, s3Store, logger)
	if err != nil {
		return nil, err
	}

	gate := initGate(cfg, o, logger)

	return &Dependencies{
		Workspace: ws,
		Resolver:  resolver,
		Builder:   builder,
		Engine:    engine,
		Library:   library,
		Gate:      gate,
		Persister: persist.NewPersister(gate, library, logger),
		logger:    logger,
	}, nil
}

// NewController creates a Job controller over the dependencies.
func (d *Dependencies) NewController(opts ...job.Option) *job.Controller {
	return job.NewController(d.Resolver, d.Builder, d.Engine, d.Persister, d.Workspace, d.logger, opts...)
}

func initResolver(cfg *config.Config, ws *storage.Workspace, s3Store *storage.S3Store, logger *slog.Logger) *source.Resolver {
	var ropts []source.ResolverOption
	if cfg.ContentRoot != "" {
		ropts = append(ropts, source.WithOpener("content", source.DirectoryOpener{Root: cfg.ContentRoot}))
		logger.Debug("content references enabled", slog.String("content_root", cfg.ContentRoot))
	}
	if s3Store != nil {
		ropts = append(ropts, source.WithOpener("s3", s3Store))
	}
	return source.NewResolver(ws, logger, ropts...)
}

// initLibrary creates the library backend based on configuration.
func initLibrary(cfg *config.Config, s3Store *storage.S3Store, logger *slog.Logger) (storage.Library, error) {
	if s3Store != nil {
		logger.Info("S3 library configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	lib, err := storage.NewDirectoryLibrary(cfg.LibraryDir)
	if err != nil {
		return nil, fmt.Errorf("create library: %w", err)
	}
	logger.Debug("directory library configured", slog.String("library_dir", cfg.LibraryDir))
	return lib, nil
}

func initGate(cfg *config.Config, o options, logger *slog.Logger) persist.Gate {
	switch cfg.WritePermission {
	case config.PermissionGrant:
		return persist.StaticGate(true)
	case config.PermissionDeny:
		return persist.StaticGate(false)
	default:
		return persist.NewPromptGate(o.promptTTY, o.promptIn, o.promptOut, logger)
	}
}
