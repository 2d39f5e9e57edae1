package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a content reference escapes the provider root.
var ErrOutsideRoot = errors.New("reference resolves outside the content root")

// DirectoryOpener serves content://<authority>/<path> references from a
// directory tree: the authority and path are joined under Root.
type DirectoryOpener struct {
	Root string
}

// Compile-time check that DirectoryOpener implements Opener.
var _ Opener = DirectoryOpener{}

// Open opens the file behind ref.
func (d DirectoryOpener) Open(ctx context.Context, ref *url.URL) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	root, err := filepath.Abs(d.Root)
	if err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}
	target := filepath.Join(root, ref.Host, filepath.FromSlash(ref.Path))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s", ErrOutsideRoot, ref.Redacted())
	}

	f, err := os.Open(target) // #nosec G304 - target is confined to the content root
	if err != nil {
		return nil, err
	}
	return f, nil
}
