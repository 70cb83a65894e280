// Package report runs the full pipeline from an encrypted blob or payload to
// a finished report.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mealtrail/mealtrail/internal/bonus"
	"github.com/mealtrail/mealtrail/internal/config"
	"github.com/mealtrail/mealtrail/internal/importer"
	"github.com/mealtrail/mealtrail/internal/logger"
	"github.com/mealtrail/mealtrail/internal/model"
	"github.com/mealtrail/mealtrail/internal/session"
	"github.com/mealtrail/mealtrail/internal/stats"
)

// ErrUnknownFormat is returned by Run for a format with no registered
// parser.
var ErrUnknownFormat = errors.New("unknown source format")

// Options controls merging and ranking.
type Options struct {
	Window        time.Duration
	Stats         stats.Options
	CounterPrefix string
}

// DefaultOptions returns the standard window and ranking sizes.
func DefaultOptions() Options {
	return Options{
		Window:        session.DefaultWindow,
		Stats:         stats.DefaultOptions(),
		CounterPrefix: stats.DefaultCounterPrefix,
	}
}

// OptionsFromConfig reads pipeline options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Window: cfg.Merge.Window,
		Stats: stats.Options{
			TopLocations: cfg.Report.TopLocations,
			TopCounters:  cfg.Report.TopCounters,
		},
		CounterPrefix: cfg.Report.CounterPrefix,
	}
}

// Report is everything produced by one run. It is plain data and safe to
// hand to any renderer.
type Report struct {
	RunID        string
	Username     string
	Transactions []model.Transaction
	Sessions     []model.Session
	Summary      *stats.Summary
	Shower       model.ShowerStats
	Card         model.CardStats
	// Bonus lists every raw row matched by a bonus rule.
	Bonus []bonus.Match
	// Violations lists merge invariants that did not hold. It is empty for
	// a correct merge.
	Violations    []session.ValidationError
	CounterPrefix string
}

// Pipeline turns source documents into reports.
type Pipeline struct {
	registry *importer.Registry
	opts     Options
}

// New creates a Pipeline. A nil registry uses importer.DefaultRegistry.
func New(registry *importer.Registry, opts Options) *Pipeline {
	if registry == nil {
		registry = importer.DefaultRegistry()
	}
	return &Pipeline{registry: registry, opts: opts}
}

// Run parses data with the parser registered for format and builds the
// report.
func (p *Pipeline) Run(ctx context.Context, format string, data []byte) (*Report, error) {
	parser := p.registry.Get(format)
	if parser == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}

	rows, err := parser.Parse(data)
	if errors.Is(err, importer.ErrDataShape) {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("payload has no rows, continuing with none")
		rows, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", parser.Format(), err)
	}
	return p.FromRows(ctx, rows)
}

// FromRows builds the report from decoded rows. The dining branch
// (normalize, merge, stats) and the bonus branch read the same rows and run
// concurrently.
func (p *Pipeline) FromRows(ctx context.Context, rows []model.RawRow) (*Report, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	log.Debug().Int("rows", len(rows)).Msg("rows decoded")

	r := &Report{RunID: runID, CounterPrefix: p.opts.CounterPrefix}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txns, err := importer.Normalize(rows)
		if err != nil {
			return fmt.Errorf("normalizing rows: %w", err)
		}
		log.Debug().Int("transactions", len(txns)).Msg("rows normalized")
		if len(txns) == 0 {
			return model.ErrEmptyDataset
		}
		if err := gctx.Err(); err != nil {
			return err
		}

		sessions := session.Merge(txns, p.opts.Window)
		log.Debug().Int("sessions", len(sessions)).Msg("transactions merged")

		violations := session.Validate(txns, sessions, p.opts.Window)
		for _, v := range violations {
			log.Warn().Str("rule", v.Rule).Str("session", v.SessionID).Msg(v.Description)
		}

		summary, err := stats.Summarize(sessions, txns, p.opts.Stats)
		if err != nil {
			return fmt.Errorf("summarizing sessions: %w", err)
		}

		r.Username = txns[0].Username
		r.Transactions = txns
		r.Sessions = sessions
		r.Summary = summary
		r.Violations = violations
		return nil
	})
	g.Go(func() error {
		r.Bonus = bonus.Classify(rows, bonus.DefaultRules)
		r.Shower = bonus.Shower(rows)
		r.Card = bonus.Card(rows)
		log.Debug().Int("tagged", len(r.Bonus)).Msg("bonus rows classified")
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().
		Str("total", r.Summary.Costs.Total.StringFixed(2)).
		Int("sessions", r.Summary.Costs.Sessions).
		Int("showers", r.Shower.Count).
		Int("card_reissues", r.Card.Count).
		Msg("report complete")
	return r, nil
}
