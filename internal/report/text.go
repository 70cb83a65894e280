package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mealtrail/mealtrail/internal/stats"
)

// WriteText writes a human-readable summary of r.
func WriteText(w io.Writer, r *Report) error {
	var b strings.Builder
	sum := r.Summary

	if r.Username != "" {
		fmt.Fprintf(&b, "Report for %s\n", r.Username)
	}
	if sum != nil {
		fmt.Fprintf(&b, "Meals: %d  Total: %s  Average: %s\n",
			sum.Costs.Sessions, money(sum.Costs.Total), money(sum.Costs.Average))

		b.WriteString("\nTop locations:\n")
		for i, l := range sum.TopLocations {
			fmt.Fprintf(&b, "  %d. %s (%d)\n", i+1, l.Key, l.Count)
		}
		b.WriteString("\nTop counters:\n")
		for i, c := range sum.TopCounters {
			fmt.Fprintf(&b, "  %d. %s (%d)\n", i+1, stats.CounterDisplayName(c.Key, r.CounterPrefix), c.Count)
		}

		b.WriteString("\n")
		fmt.Fprintf(&b, "Earliest meal: %s at %s\n", sum.Earliest.StartTimestamp.Format(TimeLayout), sum.Earliest.Location)
		fmt.Fprintf(&b, "Latest meal:   %s at %s\n", sum.Latest.StartTimestamp.Format(TimeLayout), sum.Latest.Location)
		fmt.Fprintf(&b, "Most expensive: %s at %s on %s\n",
			money(sum.MostExpensive.TotalAmount), sum.MostExpensive.Location,
			sum.MostExpensive.StartTimestamp.Format(TimeLayout))
	}

	b.WriteString("\n")
	if r.Shower.Count > 0 {
		fmt.Fprintf(&b, "Showers: %d  Spent: %s  Water: %s lb (avg %s lb)\n",
			r.Shower.Count, money(r.Shower.Amount), money(r.Shower.WeightPounds), money(r.Shower.AverageWeightPounds))
	} else {
		b.WriteString("Showers: none\n")
	}
	fmt.Fprintf(&b, "Card reissues: %d  Spent: %s  %s\n", r.Card.Count, money(r.Card.Amount), r.Card.Message)

	if len(r.Violations) > 0 {
		fmt.Fprintf(&b, "\nWarning: %d merge check(s) failed\n", len(r.Violations))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
