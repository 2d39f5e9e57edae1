package source

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgSelector(t *testing.T) {
	res := ArgSelector{URI: "content://media/120"}.Pick(context.Background())
	assert.Equal(t, Result{Outcome: Picked, URI: "content://media/120"}, res)
}

func TestPromptSelector(t *testing.T) {
	t.Run("reads one reference per pick", func(t *testing.T) {
		var out bytes.Buffer
		p := NewPromptSelector(strings.NewReader("  /videos/a.mp4 \ncontent://media/7\n"), &out)

		assert.Equal(t, Result{Outcome: Picked, URI: "/videos/a.mp4"}, p.Pick(context.Background()))
		assert.Equal(t, Result{Outcome: Picked, URI: "content://media/7"}, p.Pick(context.Background()))
		assert.Equal(t, 2, strings.Count(out.String(), "video reference: "))
	})

	t.Run("blank line cancels", func(t *testing.T) {
		p := NewPromptSelector(strings.NewReader("\n"), nil)
		assert.Equal(t, Cancelled, p.Pick(context.Background()).Outcome)
	})

	t.Run("end of input cancels", func(t *testing.T) {
		p := NewPromptSelector(strings.NewReader(""), nil)
		assert.Equal(t, Cancelled, p.Pick(context.Background()).Outcome)
	})

	t.Run("last line without newline is picked", func(t *testing.T) {
		p := NewPromptSelector(strings.NewReader("/videos/b.mp4"), nil)
		assert.Equal(t, Result{Outcome: Picked, URI: "/videos/b.mp4"}, p.Pick(context.Background()))
	})

	t.Run("read error fails", func(t *testing.T) {
		p := NewPromptSelector(failingReader{}, nil)
		res := p.Pick(context.Background())
		assert.Equal(t, Failed, res.Outcome)
		assert.Contains(t, res.Message, "device gone")
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := NewPromptSelector(strings.NewReader("/videos/a.mp4\n"), nil)
		assert.Equal(t, Failed, p.Pick(ctx).Outcome)
	})
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "picked", Picked.String())
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device gone")
}
