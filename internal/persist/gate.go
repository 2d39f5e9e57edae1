// Package persist writes finished artifacts into permanent media storage,
// gated by a write-permission check.
package persist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Gate decides whether the session may write to the media library.
type Gate interface {
	EnsureWritePermission(ctx context.Context) bool
}

// StaticGate returns a fixed answer.
type StaticGate bool

// EnsureWritePermission returns the configured answer.
func (g StaticGate) EnsureWritePermission(context.Context) bool {
	return bool(g)
}

// PromptGate asks the user once per session and remembers the answer.
type PromptGate struct {
	in       *bufio.Reader
	out      io.Writer
	terminal bool
	logger   *slog.Logger

	mu      sync.Mutex
	asked   bool
	granted bool
}

// NewPromptGate creates a gate that reads answers from in and prompts on out.
// When tty is not a terminal the gate never prompts and denies. Pass the
// same *bufio.Reader that other prompts use so buffered input is not lost.
func NewPromptGate(tty *os.File, in io.Reader, out io.Writer, logger *slog.Logger) *PromptGate {
	fd := tty.Fd()
	terminal := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return newPromptGate(in, out, terminal, logger)
}

func newPromptGate(in io.Reader, out io.Writer, terminal bool, logger *slog.Logger) *PromptGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &PromptGate{
		in:       bufio.NewReader(in),
		out:      out,
		terminal: terminal,
		logger:   logger,
	}
}

// EnsureWritePermission prompts for y/N on first use.
func (g *PromptGate) EnsureWritePermission(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.asked {
		return g.granted
	}
	if ctx.Err() != nil {
		return false
	}
	g.asked = true

	if !g.terminal {
		g.logger.Info("write permission denied: input is not a terminal")
		return false
	}

	if g.out != nil {
		_, _ = fmt.Fprint(g.out, "allow saving to the media library? [y/N] ")
	}
	line, err := g.in.ReadString('\n')
	if err != nil && line == "" {
		g.logger.Warn("write permission prompt failed", slog.String("error", err.Error()))
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		g.granted = true
	}
	g.logger.Debug("write permission answered", slog.Bool("granted", g.granted))
	return g.granted
}
