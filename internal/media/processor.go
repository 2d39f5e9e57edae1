// Package media builds and runs transcoding engine invocations.
//
// Builder turns a pipeline intent (probe, extract-frame, transcode) into an
// Invocation without touching the filesystem. Engine executes one Invocation
// to completion and reports its exit status.
package media

import "context"

// Engine defines the interface for executing a single engine invocation.
// Implementations should use ffmpeg/ffprobe or a compatible tool.
type Engine interface {
	// Execute runs the invocation to completion and returns its status code.
	// A zero status code is success. A non-nil error is returned alongside
	// any non-zero status and carries the engine's diagnostic output.
	// For probe invocations Result.Properties holds the media properties.
	Execute(ctx context.Context, inv Invocation) (Result, error)
}

// Result is the outcome of one engine invocation.
type Result struct {
	// StatusCode is the process exit code, -1 when the process never ran.
	StatusCode int
	// Properties contains media properties for probe invocations.
	// Values are strings, numbers or nested structures.
	Properties map[string]any
	// Stderr is the captured diagnostic output.
	Stderr string
}

// Succeeded reports whether the invocation completed with a zero status.
func (r Result) Succeeded() bool {
	return r.StatusCode == 0
}
