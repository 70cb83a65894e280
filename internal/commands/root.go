package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mealtrail/mealtrail/internal/buildinfo"
	"github.com/mealtrail/mealtrail/internal/config"
	"github.com/mealtrail/mealtrail/internal/logger"
	"github.com/mealtrail/mealtrail/internal/report"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "mealtrail",
		Short:   "Yearly canteen spending report from campus card transactions",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with overrides")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newReportCommand(opts))
	rootCmd.AddCommand(newFetchCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// loadConfig resolves the config file, dotenv file, environment and flags
// into one Config.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, o.envFile); err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup loads the config and returns a context carrying a logger that
// writes to the command's stderr.
func (o *globalOptions) setup(cmd *cobra.Command) (context.Context, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Log.Level, cmd.ErrOrStderr())
	return logger.WithContext(cmd.Context(), log), cfg, nil
}

// userError carries the short message for a pipeline failure while keeping
// the cause for errors.Is.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func friendly(ctx context.Context, err error) error {
	log := logger.FromContext(ctx)
	log.Debug().Err(err).Msg("command failed")
	return &userError{msg: report.UserMessage(err), err: err}
}
