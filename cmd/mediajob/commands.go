package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maauso/mediajob/internal/config"
	"github.com/maauso/mediajob/internal/media"
	"github.com/maauso/mediajob/internal/storage"
)

const sourceArgHelp = `SOURCE is a file path, a file:// URL, a content:// reference (served from
CONTENT_ROOT) or an s3:// reference (when S3 is configured). Use "-" to
type the reference interactively.`

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info SOURCE",
		Short: "Print the media properties of a video",
		Long:  sourceArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd, args[0], probeStep)
		},
	}
}

func newFrameCommand(a *app) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "frame SOURCE",
		Short: "Extract a still frame as the thumbnail artifact",
		Long:  sourceArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			return a.runSession(cmd, args[0], extractStep(frameIndex(cmd, cfg, index)))
		},
	}
	cmd.Flags().IntVarP(&index, "index", "n", 0, "Zero-based frame index (default FRAME_INDEX)")
	return cmd
}

func newConvertCommand(a *app) *cobra.Command {
	var height int

	cmd := &cobra.Command{
		Use:   "convert SOURCE",
		Short: "Transcode a video and save it to the media library",
		Long:  sourceArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			return a.runSession(cmd, args[0], transcodeStep(targetHeight(cmd, cfg, height)))
		},
	}
	cmd.Flags().IntVar(&height, "height", 0, "Output height in pixels (default TARGET_HEIGHT)")
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	var index, height int

	cmd := &cobra.Command{
		Use:   "run SOURCE",
		Short: "Probe, extract a frame and transcode in one session",
		Long:  sourceArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			return a.runSession(cmd, args[0],
				probeStep,
				extractStep(frameIndex(cmd, cfg, index)),
				transcodeStep(targetHeight(cmd, cfg, height)),
			)
		},
	}
	cmd.Flags().IntVarP(&index, "index", "n", 0, "Zero-based frame index (default FRAME_INDEX)")
	cmd.Flags().IntVar(&height, "height", 0, "Output height in pixels (default TARGET_HEIGHT)")
	return cmd
}

func newPlanCommand(a *app) *cobra.Command {
	var index, height int

	cmd := &cobra.Command{
		Use:   "plan PATH",
		Short: "Print the engine invocations for a local video without running them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			b, err := media.NewBuilder(media.Profile{
				CRF:          cfg.VideoCRF,
				Preset:       cfg.VideoPreset,
				AudioPolicy:  cfg.AudioPolicy,
				AudioBitrate: cfg.AudioBitrate,
			})
			if err != nil {
				return err
			}
			ws, err := storage.NewWorkspace(cfg.TempDir, cfg.CacheDir)
			if err != nil {
				return err
			}

			path := args[0]
			frame, err := b.ExtractFrame(path, frameIndex(cmd, cfg, index), ws.ArtifactPath(storage.ThumbnailArtifact))
			if err != nil {
				return err
			}
			transcode, err := b.Transcode(path, targetHeight(cmd, cfg, height), ws.ArtifactPath(storage.TranscodeArtifact))
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, renderPlan([]media.Invocation{b.Probe(path), frame, transcode}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "n", 0, "Zero-based frame index (default FRAME_INDEX)")
	cmd.Flags().IntVar(&height, "height", 0, "Output height in pixels (default TARGET_HEIGHT)")
	return cmd
}

func frameIndex(cmd *cobra.Command, cfg *config.Config, flag int) int {
	if cmd.Flags().Changed("index") {
		return flag
	}
	return cfg.FrameIndex
}

func targetHeight(cmd *cobra.Command, cfg *config.Config, flag int) int {
	if cmd.Flags().Changed("height") {
		return flag
	}
	return cfg.TargetHeight
}
