// Package storage provides the working areas and permanent libraries used by
// the media pipeline. It defines the Workspace used for staged sources and
// cache artifacts, and Library implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Fixed artifact names in the caches directory. A later job reuses and
// overwrites them.
const (
	// ThumbnailArtifact is the still frame written by frame extraction.
	ThumbnailArtifact = "thumbnail.png"
	// TranscodeArtifact is the video written by transcoding.
	TranscodeArtifact = "video.mp4"
)

// Library defines permanent, user-visible media storage.
type Library interface {
	// Save stores data under name and returns where it was stored
	// (a filesystem path or a URL).
	Save(ctx context.Context, name string, data io.Reader) (location string, err error)
}
