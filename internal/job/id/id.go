// Package id provides unique identifier generation for jobs and artifacts.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Generate creates a new unique job ID.
// Format: job-<uuid>
// Example: job-6f1c2a9e-8a43-4f53-9b1e-2d3c4b5a6e7f
func Generate() string {
	return "job-" + uuid.NewString()
}

// Short returns an 8 character random identifier suitable for file names.
func Short() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
