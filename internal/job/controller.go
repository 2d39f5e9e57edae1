package job

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/maauso/mediajob/internal/media"
	"github.com/maauso/mediajob/internal/persist"
	"github.com/maauso/mediajob/internal/source"
	"github.com/maauso/mediajob/internal/storage"
)

// Resolver turns a picked reference into a local path.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Builder constructs engine invocations.
type Builder interface {
	Probe(localPath string) media.Invocation
	ExtractFrame(localPath string, frameIndex int, outputPath string) (media.Invocation, error)
	Transcode(localPath string, targetHeight int, outputPath string) (media.Invocation, error)
}

// Persister saves a finished artifact to permanent storage.
type Persister interface {
	Persist(ctx context.Context, path string) (persist.Outcome, error)
}

// Artifacts manages the fixed artifact files in the caches directory.
type Artifacts interface {
	ArtifactPath(name string) string
	Clear(path string) error
	Size(path string) (int64, error)
}

// Observer receives a snapshot after every applied transition.
type Observer func(Snapshot)

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// WithClock sets the time source used for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller owns one Job and runs pipeline operations against it.
//
// Every operation returns false without any effect when the Job is busy or,
// for probe, extract-frame and transcode, when no source has been staged.
// Collaborator failures never escape: they move the Job to FAILED and are
// recorded in its log and Error field.
type Controller struct {
	mu  sync.Mutex
	job *Job

	resolver  Resolver
	builder   Builder
	engine    media.Engine
	persister Persister
	artifacts Artifacts
	logger    *slog.Logger

	observers []Observer
	now       func() time.Time
}

// NewController creates a controller over a fresh IDLE Job.
func NewController(
	resolver Resolver,
	builder Builder,
	engine media.Engine,
	persister Persister,
	artifacts Artifacts,
	logger *slog.Logger,
	opts ...Option,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		resolver:  resolver,
		builder:   builder,
		engine:    engine,
		persister: persister,
		artifacts: artifacts,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.job = New(c.now())
	c.logger = c.logger.With(slog.String("job_id", c.job.ID))
	return c
}

// Snapshot returns an immutable copy of the Job.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job.Snapshot()
}

// Pick runs the selector and, when a reference is picked, resolves it.
func (c *Controller) Pick(ctx context.Context, sel source.Selector) bool {
	prev, _, ok := c.request(StatusPicking, false, nil)
	if !ok {
		return false
	}

	res := sel.Pick(ctx)
	switch {
	case res.Outcome == source.Cancelled:
		c.apply(func(j *Job, now time.Time) {
			c.transition(j, prev, now)
		})
		return true
	case res.Outcome != source.Picked:
		c.logger.Warn("source selection failed", slog.String("message", res.Message))
		c.apply(func(j *Job, now time.Time) {
			j.Append(now, "source selection failed: "+res.Message)
			c.transition(j, prev, now)
		})
		return true
	case strings.TrimSpace(res.URI) == "":
		c.logger.Warn("source selection returned no reference")
		c.apply(func(j *Job, now time.Time) {
			j.Append(now, "source selection returned no reference")
			c.transition(j, prev, now)
		})
		return true
	}

	c.apply(func(j *Job, now time.Time) {
		startSource(j, res.URI, now)
		c.transition(j, StatusResolving, now)
	})
	c.resolve(ctx, res.URI)
	return true
}

// SelectSource resolves uri as a newly picked source.
func (c *Controller) SelectSource(ctx context.Context, uri string) bool {
	_, _, ok := c.request(StatusResolving, false, func(j *Job, now time.Time) {
		startSource(j, uri, now)
	})
	if !ok {
		return false
	}
	c.resolve(ctx, uri)
	return true
}

func startSource(j *Job, uri string, now time.Time) {
	j.ResetSource(uri)
	j.Error = ""
	j.Append(now, "source picked: "+uri)
}

func (c *Controller) resolve(ctx context.Context, uri string) {
	path, err := c.resolver.Resolve(ctx, uri)
	c.apply(func(j *Job, now time.Time) {
		if err != nil {
			c.fail(j, &ResolutionError{URI: uri, Err: err}, now)
			return
		}
		j.StagedPath = path
		j.Append(now, "source resolved: "+path)
		c.transition(j, StatusIdle, now)
	})
	if err == nil {
		c.logger.Info("source resolved", slog.String("path", path))
	}
}

// Probe reads the media properties of the staged source into the log.
func (c *Controller) Probe(ctx context.Context) bool {
	_, staged, ok := c.request(StatusProbing, true, clearError)
	if !ok {
		return false
	}

	res, err := c.engine.Execute(ctx, c.builder.Probe(staged))
	c.apply(func(j *Job, now time.Time) {
		if ferr := engineFailure(media.KindProbe, res, err); ferr != nil {
			c.fail(j, ferr, now)
			return
		}
		if len(res.Properties) == 0 {
			j.Append(now, "probe returned no properties")
		}
		for _, k := range slices.Sorted(maps.Keys(res.Properties)) {
			j.Append(now, fmt.Sprintf("%s: %s", k, media.FormatProperty(res.Properties[k])))
		}
		c.transition(j, StatusIdle, now)
	})
	return true
}

// ExtractFrame writes frame frameIndex of the staged source to the thumbnail artifact.
func (c *Controller) ExtractFrame(ctx context.Context, frameIndex int) bool {
	_, staged, ok := c.request(StatusExtractingFrame, true, clearError)
	if !ok {
		return false
	}

	out := c.artifacts.ArtifactPath(storage.ThumbnailArtifact)
	res, err := c.produce(ctx, media.KindExtractFrame, out, func() (media.Invocation, error) {
		return c.builder.ExtractFrame(staged, frameIndex, out)
	})
	c.apply(func(j *Job, now time.Time) {
		if err != nil {
			c.fail(j, err, now)
			return
		}
		j.ThumbnailPath = out
		j.Append(now, "extract-frame output: "+out)
		j.Append(now, fmt.Sprintf("extract-frame result: %d", res.StatusCode))
		c.transition(j, StatusReady, now)
	})
	return true
}

// Transcode rescales the staged source to targetHeight and persists the result.
func (c *Controller) Transcode(ctx context.Context, targetHeight int) bool {
	_, staged, ok := c.request(StatusTranscoding, true, clearError)
	if !ok {
		return false
	}

	out := c.artifacts.ArtifactPath(storage.TranscodeArtifact)
	res, err := c.produce(ctx, media.KindTranscode, out, func() (media.Invocation, error) {
		return c.builder.Transcode(staged, targetHeight, out)
	})
	c.apply(func(j *Job, now time.Time) {
		if err != nil {
			c.fail(j, err, now)
			return
		}
		j.Append(now, "transcode output: "+out)
		j.Append(now, fmt.Sprintf("transcode result: %d", res.StatusCode))
		c.transition(j, StatusPersisting, now)
	})
	if err != nil {
		return true
	}

	outcome, err := c.persister.Persist(ctx, out)
	c.apply(func(j *Job, now time.Time) {
		switch {
		case err != nil:
			c.fail(j, &PersistError{Path: out, Err: err}, now)
			return
		case outcome.Kind == persist.Skipped:
			j.Append(now, "persist skipped: "+outcome.Reason)
		default:
			j.OutputPath = out
			j.Location = outcome.Location
			j.Append(now, fmt.Sprintf("persisted: %s (%s)", outcome.Location, humanize.Bytes(uint64(max(outcome.Size, 0)))))
		}
		c.transition(j, StatusReady, now)
	})
	return true
}

// produce builds an invocation writing to out, clears any stale artifact,
// runs the engine and checks that the artifact was written.
func (c *Controller) produce(ctx context.Context, kind media.Kind, out string, build func() (media.Invocation, error)) (media.Result, error) {
	inv, err := build()
	if err != nil {
		return media.Result{StatusCode: -1}, &EngineError{Op: string(kind), StatusCode: -1, Err: err}
	}
	if err := c.artifacts.Clear(out); err != nil {
		return media.Result{StatusCode: -1}, &EngineError{Op: string(kind), StatusCode: -1, Err: err}
	}

	res, err := c.engine.Execute(ctx, inv)
	if ferr := engineFailure(kind, res, err); ferr != nil {
		return res, ferr
	}
	if _, err := c.artifacts.Size(out); err != nil {
		return res, &EngineError{Op: string(kind), StatusCode: res.StatusCode, Err: fmt.Errorf("no output written: %w", err)}
	}
	return res, nil
}

// engineFailure returns an EngineError unless the engine reported a clean zero status.
func engineFailure(kind media.Kind, res media.Result, err error) error {
	if err == nil && res.Succeeded() {
		return nil
	}
	return &EngineError{Op: string(kind), StatusCode: res.StatusCode, Err: err}
}

func clearError(j *Job, _ time.Time) {
	j.Error = ""
}

// request applies a request transition to the given status. It reports the
// status it left and the staged path at that moment.
func (c *Controller) request(to Status, needsSource bool, mutate func(*Job, time.Time)) (Status, string, bool) {
	c.mu.Lock()
	if c.job.IsBusy() || (needsSource && c.job.StagedPath == "") {
		status := c.job.Status
		c.mu.Unlock()
		c.logger.Debug("request rejected",
			slog.String("request", string(to)),
			slog.String("status", string(status)),
		)
		return "", "", false
	}

	prev := c.job.Status
	staged := c.job.StagedPath
	now := c.now()
	if mutate != nil {
		mutate(c.job, now)
	}
	c.transition(c.job, to, now)
	snap := c.job.Snapshot()
	c.mu.Unlock()

	c.notify(snap)
	return prev, staged, true
}

// apply runs fn against the Job under the lock and notifies observers.
func (c *Controller) apply(fn func(*Job, time.Time)) {
	c.mu.Lock()
	fn(c.job, c.now())
	snap := c.job.Snapshot()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) transition(j *Job, to Status, now time.Time) {
	from := j.Status
	if err := j.TransitionTo(to, now); err != nil {
		c.logger.Error("transition rejected",
			slog.String("from", string(from)),
			slog.String("to", string(to)),
		)
		return
	}
	c.logger.Debug("status changed",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

func (c *Controller) fail(j *Job, err error, now time.Time) {
	c.logger.Warn("operation failed",
		slog.String("status", string(j.Status)),
		slog.String("error", err.Error()),
	)
	j.Error = err.Error()
	j.Append(now, err.Error())
	c.transition(j, StatusFailed, now)
}

func (c *Controller) notify(s Snapshot) {
	for _, o := range c.observers {
		o(s)
	}
}
