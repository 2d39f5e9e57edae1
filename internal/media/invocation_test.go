package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T, profile Profile) *Builder {
	t.Helper()
	b, err := NewBuilder(profile)
	require.NoError(t, err)
	return b
}

func TestNewBuilder_InvalidProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
	}{
		{"crf too high", Profile{CRF: 60, Preset: "slower", AudioPolicy: AudioCopy}},
		{"missing preset", Profile{CRF: 23, AudioPolicy: AudioCopy}},
		{"unknown audio policy", Profile{CRF: 23, Preset: "slower", AudioPolicy: "flac"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(tt.profile)
			assert.Error(t, err)
		})
	}
}

func TestBuilder_Probe(t *testing.T) {
	b := newTestBuilder(t, DefaultProfile())

	inv := b.Probe("/tmp/in put.mp4")

	assert.Equal(t, KindProbe, inv.Kind)
	assert.Equal(t, ToolFFprobe, inv.Tool)
	assert.Empty(t, inv.OutputPath)
	assert.Equal(t, []string{
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", "/tmp/in put.mp4",
	}, inv.Args)
}

func TestBuilder_ExtractFrame(t *testing.T) {
	b := newTestBuilder(t, DefaultProfile())

	inv, err := b.ExtractFrame("/tmp/120", 500, "/cache/thumbnail.png")
	require.NoError(t, err)

	assert.Equal(t, KindExtractFrame, inv.Kind)
	assert.Equal(t, ToolFFmpeg, inv.Tool)
	assert.Equal(t, "/cache/thumbnail.png", inv.OutputPath)
	assert.Equal(t, []string{
		"-y", "-i", "/tmp/120", "-vf", `select=eq(n\,500)`, "-vframes", "1", "/cache/thumbnail.png",
	}, inv.Args)
}

func TestBuilder_ExtractFrame_Deterministic(t *testing.T) {
	b := newTestBuilder(t, DefaultProfile())

	for _, n := range []int{0, 1, 500, 1 << 20} {
		first, err := b.ExtractFrame("/tmp/video.mov", n, "/cache/thumbnail.png")
		require.NoError(t, err)
		second, err := b.ExtractFrame("/tmp/video.mov", n, "/cache/thumbnail.png")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestBuilder_ExtractFrame_InvalidInput(t *testing.T) {
	b := newTestBuilder(t, DefaultProfile())

	_, err := b.ExtractFrame("/tmp/video.mov", -1, "/cache/thumbnail.png")
	assert.ErrorIs(t, err, ErrInvalidFrameIndex)

	_, err = b.ExtractFrame("", 3, "/cache/thumbnail.png")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = b.ExtractFrame("/tmp/video.mov", 3, "")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestBuilder_Transcode(t *testing.T) {
	t.Run("copy audio", func(t *testing.T) {
		b := newTestBuilder(t, DefaultProfile())

		inv, err := b.Transcode("/tmp/120", 720, "/cache/video.mp4")
		require.NoError(t, err)

		assert.Equal(t, KindTranscode, inv.Kind)
		assert.Equal(t, ToolFFmpeg, inv.Tool)
		assert.Equal(t, "/cache/video.mp4", inv.OutputPath)
		assert.Equal(t, []string{
			"-y", "-i", "/tmp/120",
			"-vf", "scale=-2:720",
			"-c:v", "libx264", "-crf", "23", "-preset", "slower",
			"-c:a", "copy",
			"/cache/video.mp4",
		}, inv.Args)
	})

	t.Run("aac audio", func(t *testing.T) {
		b := newTestBuilder(t, Profile{CRF: 28, Preset: "fast", AudioPolicy: AudioAAC, AudioBitrate: "96k"})

		inv, err := b.Transcode("/tmp/120", 480, "/cache/video.mp4")
		require.NoError(t, err)

		assert.Equal(t, []string{
			"-y", "-i", "/tmp/120",
			"-vf", "scale=-2:480",
			"-c:v", "libx264", "-crf", "28", "-preset", "fast",
			"-c:a", "aac", "-b:a", "96k",
			"/cache/video.mp4",
		}, inv.Args)
	})

	t.Run("invalid height", func(t *testing.T) {
		b := newTestBuilder(t, DefaultProfile())
		for _, h := range []int{0, -720} {
			_, err := b.Transcode("/tmp/120", h, "/cache/video.mp4")
			assert.ErrorIs(t, err, ErrInvalidHeight)
		}
	})
}

func TestInvocation_String(t *testing.T) {
	b := newTestBuilder(t, DefaultProfile())
	inv, err := b.ExtractFrame("/tmp/my clip.mov", 2, "/cache/thumbnail.png")
	require.NoError(t, err)

	assert.Equal(t,
		`ffmpeg -y -i "/tmp/my clip.mov" -vf "select=eq(n\\,2)" -vframes 1 /cache/thumbnail.png`,
		inv.String(),
	)
}
