package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Static errors for engine execution.
var (
	// ErrUnknownTool is returned when an invocation targets an unsupported tool.
	ErrUnknownTool = errors.New("unknown engine tool")
	// ErrFFprobeOutput is returned when probe output cannot be decoded.
	ErrFFprobeOutput = errors.New("ffprobe output could not be parsed")
)

// Compile-time check that FFmpegEngine implements Engine.
var _ Engine = (*FFmpegEngine)(nil)

// commandResult is the captured outcome of one process execution.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	// #nosec G204 - binary paths are set by the application, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// FFmpegEngine implements Engine using the ffmpeg and ffprobe CLIs.
type FFmpegEngine struct {
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
	logger      *slog.Logger
}

// NewFFmpegEngine creates a new FFmpegEngine.
// Empty paths default to "ffmpeg" and "ffprobe" (found via PATH).
func NewFFmpegEngine(ffmpegPath, ffprobePath string, logger *slog.Logger) *FFmpegEngine {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegEngine{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      execRunner{},
		logger:      logger,
	}
}

// Execute runs the invocation and interprets its exit status.
func (e *FFmpegEngine) Execute(ctx context.Context, inv Invocation) (Result, error) {
	binary, err := e.binaryFor(inv.Tool)
	if err != nil {
		return Result{StatusCode: -1}, err
	}

	e.logger.Debug("engine invocation",
		slog.String("kind", string(inv.Kind)),
		slog.String("command", inv.String()),
	)

	out, runErr := e.runner.Run(ctx, binary, inv.Args...)
	result := Result{
		StatusCode: out.ExitCode,
		Stderr:     out.Stderr,
	}
	if runErr != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("%s cancelled: %w", inv.Tool, ctx.Err())
		}
		return result, &FFmpegError{
			Tool:     inv.Tool,
			Args:     inv.Args,
			ExitCode: out.ExitCode,
			Stderr:   out.Stderr,
			Err:      runErr,
		}
	}

	if inv.Kind == KindProbe {
		props, err := parseProbeOutput([]byte(out.Stdout))
		if err != nil {
			return result, err
		}
		result.Properties = props
	}

	return result, nil
}

func (e *FFmpegEngine) binaryFor(tool Tool) (string, error) {
	switch tool {
	case ToolFFmpeg:
		return e.ffmpegPath, nil
	case ToolFFprobe:
		return e.ffprobePath, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
}

// FFmpegError represents an error from running the engine, including the stderr output.
type FFmpegError struct {
	Tool     Tool
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, lastLine(e.Stderr))
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// lastLine returns the final non-empty line of engine output, which is where
// ffmpeg reports the fatal error.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return "no diagnostic output"
}
