package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maauso/mediajob/internal/bootstrap"
	"github.com/maauso/mediajob/internal/job"
	"github.com/maauso/mediajob/internal/source"
	"github.com/maauso/mediajob/internal/storage"
)

var (
	errOperationFailed = errors.New("operation failed")
	errNoSource        = errors.New("no source selected")
)

// interactiveSource is the source argument that asks for a reference on stdin.
const interactiveSource = "-"

// step is one controller operation; it reports whether it was accepted.
type step func(ctx context.Context, c *job.Controller) bool

func (a *app) dependencies(ctx context.Context) (*bootstrap.Dependencies, error) {
	cfg, err := a.ensureConfig(ctx)
	if err != nil {
		return nil, err
	}
	opts := []bootstrap.Option{bootstrap.WithPromptStreams(a.in, a.stdin(), a.errOut)}
	if a.engine != nil {
		opts = append(opts, bootstrap.WithEngine(a.engine))
	}
	deps, err := bootstrap.NewDependencies(cfg, a.logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize dependencies: %w", err)
	}
	return deps, nil
}

func (a *app) selector(ref string) source.Selector {
	if strings.TrimSpace(ref) == interactiveSource {
		return source.NewPromptSelector(a.stdin(), a.errOut)
	}
	return source.ArgSelector{URI: ref}
}

// runSession picks ref, runs steps in order until one fails, then prints the
// activity log and a summary of the job.
func (a *app) runSession(cmd *cobra.Command, ref string, steps ...step) error {
	ctx := cmd.Context()
	deps, err := a.dependencies(ctx)
	if err != nil {
		return err
	}

	lock, err := storage.AcquireLock(deps.Workspace.CacheDir())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	reporter := newBusyReporter(a.errOut, a.colorize)
	ctrl := deps.NewController(job.WithObserver(reporter.Observe))

	ctrl.Pick(ctx, a.selector(ref))
	for _, s := range steps {
		snap := ctrl.Snapshot()
		if snap.StagedPath == "" || snap.Status == job.StatusFailed {
			break
		}
		s(ctx, ctrl)
	}

	snap := ctrl.Snapshot()
	fmt.Fprintln(a.out, renderLog(snap.Log))
	fmt.Fprintln(a.out, renderSummary(snap, deps.Workspace))

	switch {
	case snap.Status == job.StatusFailed:
		return fmt.Errorf("%w: %s", errOperationFailed, snap.Error)
	case snap.StagedPath == "":
		return errNoSource
	}
	return nil
}

func probeStep(ctx context.Context, c *job.Controller) bool {
	return c.Probe(ctx)
}

func extractStep(index int) step {
	return func(ctx context.Context, c *job.Controller) bool {
		return c.ExtractFrame(ctx, index)
	}
}

func transcodeStep(height int) step {
	return func(ctx context.Context, c *job.Controller) bool {
		return c.Transcode(ctx, height)
	}
}
