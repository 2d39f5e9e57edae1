package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maauso/mediajob/internal/job/id"
	"github.com/maauso/mediajob/internal/storage"
)

// ReasonNoPermission is the skip reason when the gate denies writing.
const ReasonNoPermission = "no permission"

// ErrEmptyPath is returned when Persist is called without an artifact path.
var ErrEmptyPath = errors.New("artifact path is required")

// Kind classifies a persist outcome.
type Kind int

const (
	// Saved means the artifact was written to the library.
	Saved Kind = iota
	// Skipped means nothing was written; the artifact stays local.
	Skipped
)

// Outcome is the non-error result of Persist.
type Outcome struct {
	Kind Kind
	// Location is where the artifact was saved (path or URL). Set for Saved.
	Location string
	// Size of the saved artifact in bytes. Set for Saved.
	Size int64
	// Reason explains a skip.
	Reason string
}

// Persister copies artifacts into a media library once the gate allows it.
type Persister struct {
	gate    Gate
	library storage.Library
	logger  *slog.Logger
	newName func(path string) string
}

// NewPersister creates a Persister writing into library.
func NewPersister(gate Gate, library storage.Library, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		gate:    gate,
		library: library,
		logger:  logger,
		newName: libraryName,
	}
}

// Persist saves the artifact at path. A denied gate yields a Skipped outcome
// and a nil error; an error means the write itself failed.
func (p *Persister) Persist(ctx context.Context, path string) (Outcome, error) {
	if path == "" {
		return Outcome{}, ErrEmptyPath
	}

	if !p.gate.EnsureWritePermission(ctx) {
		p.logger.Info("persist skipped", slog.String("path", path), slog.String("reason", ReasonNoPermission))
		return Outcome{Kind: Skipped, Reason: ReasonNoPermission}, nil
	}

	f, err := os.Open(path) // #nosec G304 - path is a pipeline artifact
	if err != nil {
		return Outcome{}, fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return Outcome{}, fmt.Errorf("stat artifact: %w", err)
	}

	name := p.newName(path)
	location, err := p.library.Save(ctx, name, f)
	if err != nil {
		return Outcome{}, fmt.Errorf("save %s: %w", name, err)
	}

	p.logger.Info("artifact persisted",
		slog.String("path", path),
		slog.String("location", location),
		slog.Int64("size", info.Size()),
	)
	return Outcome{Kind: Saved, Location: location, Size: info.Size()}, nil
}

// libraryName returns <stem>-<short id><ext> for the artifact at path.
func libraryName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s-%s%s", stem, id.Short(), ext)
}
