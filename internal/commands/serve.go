package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mealtrail/mealtrail/internal/logger"
	"github.com/mealtrail/mealtrail/internal/report"
	"github.com/mealtrail/mealtrail/internal/server"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline := report.New(nil, report.OptionsFromConfig(cfg))
			router := server.NewRouter(pipeline, newFetchClient(cfg), logger.FromContext(ctx))
			return server.ListenAndServe(ctx, cfg.Server.Addr, router)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
