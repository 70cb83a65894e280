package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/mealtrail/mealtrail/internal/config"
	"github.com/mealtrail/mealtrail/internal/export"
	"github.com/mealtrail/mealtrail/internal/fetch"
	"github.com/mealtrail/mealtrail/internal/importer"
	"github.com/mealtrail/mealtrail/internal/logger"
	"github.com/mealtrail/mealtrail/internal/report"
)

// Output formats for the report command.
const (
	outputText = "text"
	outputJSON = "json"
	outputCSV  = "csv"
)

// sourceFlags select where transactions come from. At most one file flag
// may be set; with neither, test mode or a remote fetch is used.
type sourceFlags struct {
	payloadFile string
	blobFile    string
	idSerial    string
	serviceHall string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.idSerial, "idserial", "", "card account serial (overrides "+config.EnvIDSerial+")")
	cmd.Flags().StringVar(&f.serviceHall, "servicehall", "", "servicehall session cookie (overrides "+config.EnvServiceHall+")")
}

func newReportCommand(opts *globalOptions) *cobra.Command {
	var src sourceFlags
	var format, out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the spending report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			return runReport(ctx, cmd.OutOrStdout(), cfg, src, format, out)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&src.payloadFile, "payload-file", "", "read a decrypted JSON payload from file")
	cmd.Flags().StringVar(&src.blobFile, "blob-file", "", "read an encrypted blob from file")
	cmd.MarkFlagsMutuallyExclusive("payload-file", "blob-file")
	cmd.Flags().StringVar(&format, "format", outputText, "output format: text, json or csv")
	cmd.Flags().StringVar(&out, "out", "", "output file (directory for csv); default stdout")

	return cmd
}

func runReport(ctx context.Context, stdout io.Writer, cfg *config.Config, src sourceFlags, format, out string) error {
	switch format {
	case outputText, outputJSON, outputCSV:
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if format == outputCSV && out == "" {
		return fmt.Errorf("--out is required for csv output")
	}

	srcFormat, data, err := loadSource(ctx, cfg, src)
	if err != nil {
		return friendly(ctx, err)
	}

	rep, err := report.New(nil, report.OptionsFromConfig(cfg)).Run(ctx, srcFormat, data)
	if err != nil {
		return friendly(ctx, err)
	}

	if format == outputCSV {
		if err := export.WriteDir(out, rep.Sessions, rep.Transactions); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %d sessions to %s\n", len(rep.Sessions), out)
		return nil
	}

	write := func(w io.Writer) error { return report.WriteText(w, rep) }
	if format == outputJSON {
		write = func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep.Document()); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			return nil
		}
	}

	if out == "" {
		return write(stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	return writeAndClose(out, f, write)
}

// writeAndClose runs write against wc. A failed Close is an error.
func writeAndClose(name string, wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		wc.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	return nil
}

// loadSource returns the parser format and raw bytes for the selected
// source.
func loadSource(ctx context.Context, cfg *config.Config, src sourceFlags) (string, []byte, error) {
	log := logger.FromContext(ctx)
	switch {
	case src.payloadFile != "":
		data, err := os.ReadFile(src.payloadFile)
		if err != nil {
			return "", nil, fmt.Errorf("reading payload: %w", err)
		}
		return importer.FormatJSON, data, nil
	case src.blobFile != "":
		data, err := os.ReadFile(src.blobFile)
		if err != nil {
			return "", nil, fmt.Errorf("reading blob: %w", err)
		}
		return importer.FormatEncrypted, data, nil
	case cfg.TestMode:
		log.Info().Str("fixture", cfg.TestFixture).Msg("test mode, reading fixture")
		data, err := os.ReadFile(cfg.TestFixture)
		if err != nil {
			return "", nil, fmt.Errorf("reading test fixture: %w", err)
		}
		return importer.FormatJSON, data, nil
	default:
		blob, err := fetchBlob(ctx, cfg, src)
		if err != nil {
			return "", nil, err
		}
		return importer.FormatEncrypted, []byte(blob), nil
	}
}

func fetchBlob(ctx context.Context, cfg *config.Config, src sourceFlags) (string, error) {
	creds := fetch.Credentials{IDSerial: cfg.IDSerial, ServiceHall: cfg.ServiceHall}
	if src.idSerial != "" {
		creds.IDSerial = src.idSerial
	}
	if src.serviceHall != "" {
		creds.ServiceHall = src.serviceHall
	}
	return newFetchClient(cfg).FetchBlob(ctx, creds)
}

func newFetchClient(cfg *config.Config) *fetch.Client {
	return fetch.NewClient(&http.Client{Timeout: cfg.Fetch.Timeout}, fetch.Options{
		Endpoint:       cfg.Fetch.Endpoint,
		PageSize:       cfg.Fetch.PageSize,
		StartDate:      cfg.Fetch.StartDate,
		EndDate:        cfg.Fetch.EndDate,
		MaxRetries:     cfg.Fetch.MaxRetries,
		InitialBackoff: cfg.Fetch.InitialBackoff,
	})
}
