package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/maauso/mediajob/internal/config"
	"github.com/maauso/mediajob/internal/media"
)

// app carries the streams, configuration and overrides shared by all commands.
type app struct {
	in       *os.File
	out      io.Writer
	errOut   io.Writer
	colorize bool
	lookuper envconfig.Lookuper
	engine   media.Engine

	yes bool

	stdinOnce   sync.Once
	stdinReader *bufio.Reader

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     *slog.Logger
}

func newApp() *app {
	return &app{
		in:       os.Stdin,
		out:      os.Stdout,
		errOut:   os.Stderr,
		colorize: isatty.IsTerminal(os.Stderr.Fd()),
		lookuper: envconfig.OsLookuper(),
	}
}

// stdin returns the single buffered reader over a.in. Every prompt reads
// through it so that lines buffered by one prompt stay visible to the next.
func (a *app) stdin() *bufio.Reader {
	a.stdinOnce.Do(func() {
		a.stdinReader = bufio.NewReader(a.in)
	})
	return a.stdinReader
}

func (a *app) ensureConfig(ctx context.Context) (*config.Config, error) {
	a.configOnce.Do(func() {
		cfg, err := config.LoadFrom(ctx, a.lookuper)
		if err != nil {
			a.configErr = err
			return
		}
		if a.yes {
			cfg.WritePermission = config.PermissionGrant
		}
		a.config = cfg
		a.logger = cfg.NewLogger()
	})
	return a.config, a.configErr
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mediajob",
		Short:         "Probe, capture frames from and transcode a video",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.ensureConfig(cmd.Context())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "Allow saving to the media library without asking")

	rootCmd.AddCommand(newInfoCommand(a))
	rootCmd.AddCommand(newFrameCommand(a))
	rootCmd.AddCommand(newConvertCommand(a))
	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newPlanCommand(a))

	return rootCmd
}
