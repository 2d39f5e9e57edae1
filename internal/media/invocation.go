package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Static errors for invocation building.
var (
	// ErrInvalidFrameIndex is returned when the frame index is negative.
	ErrInvalidFrameIndex = errors.New("invalid frame index: must be zero or greater")
	// ErrInvalidHeight is returned when the target height is not positive.
	ErrInvalidHeight = errors.New("invalid height: must be positive")
	// ErrEmptyPath is returned when an input or output path is empty.
	ErrEmptyPath = errors.New("path is required")
)

// Kind identifies what a pipeline invocation is for.
type Kind string

const (
	// KindProbe extracts media properties.
	KindProbe Kind = "probe"
	// KindExtractFrame writes a single still frame.
	KindExtractFrame Kind = "extract-frame"
	// KindTranscode rescales and re-encodes the video.
	KindTranscode Kind = "transcode"
)

// Tool is the engine executable an invocation targets.
type Tool string

const (
	// ToolFFmpeg is the encoder/decoder.
	ToolFFmpeg Tool = "ffmpeg"
	// ToolFFprobe is the media inspector.
	ToolFFprobe Tool = "ffprobe"
)

// Audio stream policies for transcoding.
const (
	AudioCopy = "copy"
	AudioAAC  = "aac"
)

// VideoCodec is the encoder used for every transcode.
const VideoCodec = "libx264"

// Invocation is a fully specified request to the engine.
type Invocation struct {
	// Kind is the pipeline intent.
	Kind Kind
	// Tool is the executable to run.
	Tool Tool
	// Args is the ordered argument list, without the executable.
	Args []string
	// OutputPath is the declared output file, empty for probes.
	OutputPath string
}

// String renders the invocation as a command line for logs and dry runs.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, string(inv.Tool))
	for _, a := range inv.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'\\(),") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Profile is the fixed quality/preset tradeoff applied to transcodes.
type Profile struct {
	// CRF is the x264 constant rate factor (lower = better, 23 is default).
	CRF int `validate:"min=0,max=51"`
	// Preset is the x264 speed/efficiency preset.
	Preset string `validate:"required"`
	// AudioPolicy is either AudioCopy or AudioAAC.
	AudioPolicy string `validate:"oneof=copy aac"`
	// AudioBitrate is used when AudioPolicy is AudioAAC.
	AudioBitrate string
}

// DefaultProfile returns libx264 at CRF 23 with the slower preset and the
// audio stream copied unchanged.
func DefaultProfile() Profile {
	return Profile{
		CRF:          23,
		Preset:       "slower",
		AudioPolicy:  AudioCopy,
		AudioBitrate: "128k",
	}
}

// Builder constructs engine invocations. It is a pure value: the same inputs
// always produce the same invocation and nothing is read or written.
type Builder struct {
	profile  Profile
	validate *validator.Validate
}

// NewBuilder creates a Builder for the given profile.
func NewBuilder(profile Profile) (*Builder, error) {
	v := validator.New()
	if err := v.Struct(profile); err != nil {
		return nil, fmt.Errorf("invalid transcode profile: %w", err)
	}
	return &Builder{profile: profile, validate: v}, nil
}

// Profile returns the builder's transcode profile.
func (b *Builder) Profile() Profile {
	return b.profile
}

type frameParams struct {
	Input      string `validate:"required"`
	FrameIndex int    `validate:"min=0"`
	Output     string `validate:"required"`
}

type transcodeParams struct {
	Input  string `validate:"required"`
	Height int    `validate:"min=1"`
	Output string `validate:"required"`
}

// Probe builds an invocation that prints container and stream properties as JSON.
func (b *Builder) Probe(localPath string) Invocation {
	return Invocation{
		Kind: KindProbe,
		Tool: ToolFFprobe,
		Args: []string{
			"-v", "error",
			"-hide_banner",
			"-show_format",
			"-show_streams",
			"-of", "json",
			"--", localPath,
		},
	}
}

// ExtractFrame builds an invocation that writes the frame at zero-based
// frameIndex as a single still image, overwriting outputPath. Whether the
// source has that many frames is only known when the engine runs.
func (b *Builder) ExtractFrame(localPath string, frameIndex int, outputPath string) (Invocation, error) {
	if err := b.validate.Struct(frameParams{Input: localPath, FrameIndex: frameIndex, Output: outputPath}); err != nil {
		if frameIndex < 0 {
			return Invocation{}, fmt.Errorf("%w: got %d", ErrInvalidFrameIndex, frameIndex)
		}
		return Invocation{}, fmt.Errorf("%w: %w", ErrEmptyPath, err)
	}

	// The comma inside eq() must be escaped for the filtergraph parser.
	filter := fmt.Sprintf(`select=eq(n\,%d)`, frameIndex)

	return Invocation{
		Kind: KindExtractFrame,
		Tool: ToolFFmpeg,
		Args: []string{
			"-y",            // Overwrite output file without asking
			"-i", localPath, // Input file
			"-vf", filter, // Pick exactly one decoded frame
			"-vframes", "1", // Output single frame (image)
			outputPath,
		},
		OutputPath: outputPath,
	}, nil
}

// Transcode builds an invocation that rescales to targetHeight keeping the
// aspect ratio (width rounded to an even value), re-encodes video with the
// builder profile and copies or re-encodes audio per the audio policy.
func (b *Builder) Transcode(localPath string, targetHeight int, outputPath string) (Invocation, error) {
	if err := b.validate.Struct(transcodeParams{Input: localPath, Height: targetHeight, Output: outputPath}); err != nil {
		if targetHeight <= 0 {
			return Invocation{}, fmt.Errorf("%w: got %d", ErrInvalidHeight, targetHeight)
		}
		return Invocation{}, fmt.Errorf("%w: %w", ErrEmptyPath, err)
	}

	args := []string{
		"-y",            // Overwrite output file
		"-i", localPath, // Input file
		"-vf", fmt.Sprintf("scale=-2:%d", targetHeight), // -2 keeps width even
		"-c:v", VideoCodec,
		"-crf", strconv.Itoa(b.profile.CRF),
		"-preset", b.profile.Preset,
	}
	if b.profile.AudioPolicy == AudioAAC {
		args = append(args, "-c:a", "aac", "-b:a", b.profile.AudioBitrate)
	} else {
		args = append(args, "-c:a", "copy")
	}
	args = append(args, outputPath)

	return Invocation{
		Kind:       KindTranscode,
		Tool:       ToolFFmpeg,
		Args:       args,
		OutputPath: outputPath,
	}, nil
}
