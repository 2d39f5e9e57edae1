package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Outcome classifies a source selector result.
type Outcome int

const (
	// Picked means the user chose a reference.
	Picked Outcome = iota
	// Cancelled means the user dismissed the selector.
	Cancelled
	// Failed means the selector itself could not complete.
	Failed
)

// String returns a lowercase name for the outcome.
func (o Outcome) String() string {
	switch o {
	case Picked:
		return "picked"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is what a Selector returns.
type Result struct {
	Outcome Outcome
	// URI is set when Outcome is Picked.
	URI string
	// Message is set when Outcome is Failed.
	Message string
}

// Selector lets the user pick a media reference.
type Selector interface {
	Pick(ctx context.Context) Result
}

// ArgSelector returns a reference fixed up front, e.g. from the command line.
type ArgSelector struct {
	URI string
}

// Pick returns the fixed reference.
func (a ArgSelector) Pick(context.Context) Result {
	return Result{Outcome: Picked, URI: a.URI}
}

// PromptSelector asks for a reference on an interactive stream.
type PromptSelector struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

// NewPromptSelector creates a selector reading one line per pick from in.
func NewPromptSelector(in io.Reader, out io.Writer) *PromptSelector {
	return &PromptSelector{
		in:     bufio.NewReader(in),
		out:    out,
		prompt: "video reference: ",
	}
}

// Pick writes the prompt and reads one line. End of input or a blank line
// cancels the pick.
func (p *PromptSelector) Pick(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Result{Outcome: Failed, Message: err.Error()}
	}
	if p.out != nil {
		_, _ = io.WriteString(p.out, p.prompt)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Result{Outcome: Failed, Message: fmt.Sprintf("read selection: %v", err)}
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{Outcome: Cancelled}
	}
	return Result{Outcome: Picked, URI: line}
}
