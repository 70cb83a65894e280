package stats

import (
	"fmt"

	"github.com/mealtrail/mealtrail/internal/model"
)

// Options sets the ranking sizes for Summarize.
type Options struct {
	TopLocations int
	TopCounters  int
}

// DefaultOptions returns the standard ranking sizes.
func DefaultOptions() Options {
	return Options{TopLocations: DefaultTopLocations, TopCounters: DefaultTopCounters}
}

// Summary is every aggregate of one report.
type Summary struct {
	Costs            Costs
	TopLocations     []model.Ranked
	TopCounters      []model.Ranked
	Earliest         model.Session
	Latest           model.Session
	MostExpensive    model.Session
	MerchantSpending []model.Spending
}

// Summarize computes all aggregates. txns are the transactions the sessions
// were merged from.
func Summarize(sessions []model.Session, txns []model.Transaction, opts Options) (*Summary, error) {
	if len(sessions) == 0 {
		return nil, model.ErrEmptyDataset
	}

	locations, err := TopLocations(sessions, opts.TopLocations)
	if err != nil {
		return nil, fmt.Errorf("ranking locations: %w", err)
	}
	counters, err := TopCounters(sessions, opts.TopCounters)
	if err != nil {
		return nil, fmt.Errorf("ranking counters: %w", err)
	}
	earliest, latest, err := TimeBounds(sessions)
	if err != nil {
		return nil, fmt.Errorf("time bounds: %w", err)
	}
	maxCost, err := MaxCost(sessions)
	if err != nil {
		return nil, fmt.Errorf("max cost: %w", err)
	}

	return &Summary{
		Costs:            ComputeCosts(sessions),
		TopLocations:     locations,
		TopCounters:      counters,
		Earliest:         earliest,
		Latest:           latest,
		MostExpensive:    maxCost,
		MerchantSpending: MerchantSpending(txns),
	}, nil
}
