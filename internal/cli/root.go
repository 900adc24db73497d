package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"eventlottery/config"
)

// RootOptions holds what every command shares.
type RootOptions struct {
	// LoadConfig reads the configuration; tests replace it.
	LoadConfig func() (*config.Config, error)
	// LogOutput receives structured logs. Defaults to stderr so command output stays parseable.
	LogOutput io.Writer
}

func (o *RootOptions) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, config.NewLogger(cfg.Environment, cfg.LogLevel, o.LogOutput), nil
}

// NewRootCommand creates the root command for the lotteryd CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.Load, LogOutput: os.Stderr})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lotteryd",
		Short:         "lotteryd - event waitlist lottery",
		Long:          "Runs the event lottery API and the organizer operations behind it: draws, replacement runs and bulk cancellation.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewDrawCommand(opts))
	cmd.AddCommand(NewReplaceCommand(opts))
	cmd.AddCommand(NewCancelPendingCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
