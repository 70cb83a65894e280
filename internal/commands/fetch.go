package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mealtrail/mealtrail/internal/config"
)

func newFetchCommand(opts *globalOptions) *cobra.Command {
	var src sourceFlags
	var out string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the encrypted transaction blob for offline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			return runFetch(ctx, cmd.OutOrStdout(), cfg, src, out)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&out, "out", "blob.txt", "file to write the blob to")

	return cmd
}

func runFetch(ctx context.Context, stdout io.Writer, cfg *config.Config, src sourceFlags, out string) error {
	blob, err := fetchBlob(ctx, cfg, src)
	if err != nil {
		return friendly(ctx, err)
	}
	if err := os.WriteFile(out, []byte(blob), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "Saved blob to %s (%s to %s)\n", out, cfg.Fetch.StartDate, cfg.Fetch.EndDate)
	return nil
}
