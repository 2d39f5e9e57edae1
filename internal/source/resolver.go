// Package source turns user-picked media references into local file paths.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// Static errors for reference resolution.
var (
	// ErrEmptyReference is returned when the picked reference is absent or blank.
	ErrEmptyReference = errors.New("source reference is empty")
	// ErrUnsupportedScheme is returned when no opener is registered for a scheme.
	ErrUnsupportedScheme = errors.New("unsupported reference scheme")
	// ErrInvalidReference is returned when a reference cannot be parsed or has no file name.
	ErrInvalidReference = errors.New("invalid source reference")
)

// Opener streams the content behind an indirect reference.
type Opener interface {
	Open(ctx context.Context, ref *url.URL) (io.ReadCloser, error)
}

// Stager copies content into the local working area.
type Stager interface {
	Stage(ctx context.Context, name string, data io.Reader) (string, error)
}

// Resolver normalizes a source reference into a locally readable path.
type Resolver struct {
	stager  Stager
	openers map[string]Opener
	logger  *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithOpener registers the opener used for references with the given scheme.
func WithOpener(scheme string, o Opener) ResolverOption {
	return func(r *Resolver) {
		r.openers[strings.ToLower(scheme)] = o
	}
}

// NewResolver creates a Resolver that stages indirect references through stager.
func NewResolver(stager Stager, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		stager:  stager,
		openers: make(map[string]Opener),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a local path for ref. Plain paths and file:// references
// are returned without copying. Other schemes are opened through their
// registered Opener and staged under the reference's final path segment.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyReference
	}

	if referenceScheme(ref) == "" {
		r.logger.Debug("source is a direct path", slog.String("path", ref))
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "file" {
		if u.Path == "" {
			return "", fmt.Errorf("%w: %s", ErrInvalidReference, ref)
		}
		r.logger.Debug("source is a file reference", slog.String("path", u.Path))
		return u.Path, nil
	}

	opener, ok := r.openers[scheme]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	name, err := stagedName(u)
	if err != nil {
		return "", err
	}

	rc, err := opener.Open(ctx, u)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", u.Redacted(), err)
	}
	defer func() { _ = rc.Close() }()

	path, err := r.stager.Stage(ctx, name, rc)
	if err != nil {
		return "", fmt.Errorf("copy %s: %w", u.Redacted(), err)
	}

	r.logger.Debug("source staged",
		slog.String("reference", u.Redacted()),
		slog.String("path", path),
	)
	return path, nil
}

// referenceScheme returns the scheme of a scheme://... reference, or "" when
// ref is a filesystem path. A "://" after a path separator belongs to the path.
func referenceScheme(ref string) string {
	i := strings.Index(ref, "://")
	if i <= 0 {
		return ""
	}
	for j, c := range ref[:i] {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case j > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return ""
		}
	}
	return ref[:i]
}

// stagedName derives the staging file name from the final path segment,
// percent-decoded so that escapes never reach engine arguments.
func stagedName(u *url.URL) (string, error) {
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	if escaped == "" {
		// content://media with no path: fall back to the authority.
		escaped = u.Host
	}
	segment := escaped[strings.LastIndex(escaped, "/")+1:]

	name, err := url.PathUnescape(segment)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: no usable file name in %s", ErrInvalidReference, u.Redacted())
	}
	return name, nil
}
