package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned when a staging or library name is not a plain file name.
var ErrInvalidName = errors.New("invalid file name")

// Workspace implements the staging area for resolved sources and the caches
// directory for pipeline artifacts on local disk.
type Workspace struct {
	tempDir  string
	cacheDir string
}

// NewWorkspace creates a new Workspace instance.
// If tempDir is empty, a directory under os.TempDir() is used; if cacheDir is
// empty, a "cache" directory inside tempDir is used.
// Both directories are created if they don't exist.
func NewWorkspace(tempDir, cacheDir string) (*Workspace, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "mediajob")
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(tempDir, "cache")
	}

	for _, dir := range []string{tempDir, cacheDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return &Workspace{tempDir: tempDir, cacheDir: cacheDir}, nil
}

// TempDir returns the staging directory path.
func (w *Workspace) TempDir() string {
	return w.tempDir
}

// CacheDir returns the caches directory path.
func (w *Workspace) CacheDir() string {
	return w.cacheDir
}

// Stage copies data into the staging directory under name and returns the
// staged path. The copy is written to a temporary sibling and renamed into
// place, so a reader holding the previous file at that name never sees a
// partial write.
func (w *Workspace) Stage(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if err := checkName(name); err != nil {
		return "", err
	}
	dst := filepath.Join(w.tempDir, name)
	if err := writeAtomic(dst, data); err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	return dst, nil
}

// ArtifactPath returns the fixed path of a cache artifact.
func (w *Workspace) ArtifactPath(name string) string {
	return filepath.Join(w.cacheDir, name)
}

// Clear removes a previous artifact so it can never be mistaken for fresh output.
// A missing file is not an error.
func (w *Workspace) Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear %s: %w", path, err)
	}
	return nil
}

// Size returns the size of an artifact, failing if it does not exist.
func (w *Workspace) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}

// DirectoryLibrary implements Library by copying files into a local directory.
type DirectoryLibrary struct {
	dir string
}

// Compile-time check that DirectoryLibrary implements Library.
var _ Library = (*DirectoryLibrary)(nil)

// NewDirectoryLibrary creates a library rooted at dir, creating it if needed.
func NewDirectoryLibrary(dir string) (*DirectoryLibrary, error) {
	if dir == "" {
		return nil, errors.New("library directory is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}
	return &DirectoryLibrary{dir: dir}, nil
}

// Dir returns the library directory.
func (l *DirectoryLibrary) Dir() string {
	return l.dir
}

// Save writes data into the library directory and returns the file path.
func (l *DirectoryLibrary) Save(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if err := checkName(name); err != nil {
		return "", err
	}
	dst := filepath.Join(l.dir, name)
	if err := writeAtomic(dst, data); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return dst, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// writeAtomic streams data into a temporary file next to dst and renames it over dst.
func writeAtomic(dst string, data io.Reader) error {
	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"_*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
