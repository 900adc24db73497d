package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"eventlottery/internal/domain"
)

// runWithApp wires the core, runs fn and drains notifications before returning.
func runWithApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, app *App) (any, error)) error {
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Error("release resources", "err", err)
		}
	}()

	out, err := fn(ctx, app)
	if out != nil {
		if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
			return werr
		}
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewDrawCommand runs the initial draw for an event.
func NewDrawCommand(opts *RootOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "draw <event-id>",
		Short: "Draw entrants from an event's waitlist and invite them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return errors.New("--count must be greater than zero")
			}
			return runWithApp(cmd, opts, func(ctx context.Context, app *App) (any, error) {
				res, err := app.Engine.Draw(ctx, args[0], domain.SelectionInitial, count)
				if err != nil {
					return nil, err
				}
				return res, nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of entrants to draw (required)")
	_ = cmd.MarkFlagRequired("count")
	return cmd
}

// NewReplaceCommand runs a replacement draw for an event's recorded vacancies.
func NewReplaceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <event-id>",
		Short: "Fill vacated places from the not-selected pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *App) (any, error) {
				res, err := app.Replacements.RunReplacement(ctx, args[0])
				if errors.Is(err, domain.ErrInsufficientPool) && res != nil {
					app.Logger.Warn("pool exhausted before every vacancy was filled",
						"event_id", args[0], "shortfall", res.Shortfall)
					return res, nil
				}
				if err != nil {
					return nil, err
				}
				return res, nil
			})
		},
	}
}

// NewCancelPendingCommand cancels every PENDING invitation of an event.
func NewCancelPendingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-pending <event-id>",
		Short: "Cancel every pending invitation of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, app *App) (any, error) {
				res, err := app.Invitations.BulkCancelPending(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return res, nil
			})
		},
	}
}
