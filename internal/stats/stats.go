// Package stats computes aggregates over merged meal sessions.
//
// Costs never fails; ranking and extremal functions return
// model.ErrEmptyDataset when given no sessions.
package stats

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mealtrail/mealtrail/internal/model"
)

// Default ranking sizes.
const (
	DefaultTopLocations = 3
	DefaultTopCounters  = 5
)

// DefaultCounterPrefix is removed from counter names for display.
const DefaultCounterPrefix = "园_"

// Costs holds the spending totals over all sessions.
type Costs struct {
	Total    decimal.Decimal
	Average  decimal.Decimal
	Sessions int
}

// ComputeCosts sums session totals. The average is zero when there are no
// sessions.
func ComputeCosts(sessions []model.Session) Costs {
	total := decimal.Zero
	for _, s := range sessions {
		total = total.Add(s.TotalAmount)
	}
	c := Costs{Total: total.Round(2), Average: decimal.Zero, Sessions: len(sessions)}
	if len(sessions) > 0 {
		c.Average = total.DivRound(decimal.NewFromInt(int64(len(sessions))), 2)
	}
	return c
}

// TopLocations ranks locations by number of sessions.
func TopLocations(sessions []model.Session, n int) ([]model.Ranked, error) {
	return rank(sessions, n, func(s model.Session) string { return s.Location })
}

// TopCounters ranks counters (the first merchant of each session) by number
// of sessions. Keys are raw merchant names; see CounterDisplayName.
func TopCounters(sessions []model.Session, n int) ([]model.Ranked, error) {
	return rank(sessions, n, model.Session.Counter)
}

// rank counts sessions per key and returns at most n keys by descending
// count. Equal counts keep first-appearance order.
func rank(sessions []model.Session, n int, key func(model.Session) string) ([]model.Ranked, error) {
	if len(sessions) == 0 {
		return nil, model.ErrEmptyDataset
	}

	counts := make(map[string]int)
	var order []string
	for _, s := range sessions {
		k := key(s)
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	ranked := make([]model.Ranked, len(order))
	for i, k := range order {
		ranked[i] = model.Ranked{Key: k, Count: counts[k]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// TimeBounds returns the sessions with the earliest and latest clock time,
// ignoring the calendar date. Ties go to the earlier session.
func TimeBounds(sessions []model.Session) (earliest, latest model.Session, err error) {
	if len(sessions) == 0 {
		return model.Session{}, model.Session{}, model.ErrEmptyDataset
	}
	earliest, latest = sessions[0], sessions[0]
	for _, s := range sessions[1:] {
		if s.TimeOfDay() < earliest.TimeOfDay() {
			earliest = s
		}
		if s.TimeOfDay() > latest.TimeOfDay() {
			latest = s
		}
	}
	return earliest, latest, nil
}

// MaxCost returns the most expensive session. Ties go to the earlier one.
func MaxCost(sessions []model.Session) (model.Session, error) {
	if len(sessions) == 0 {
		return model.Session{}, model.ErrEmptyDataset
	}
	best := sessions[0]
	for _, s := range sessions[1:] {
		if s.TotalAmount.GreaterThan(best.TotalAmount) {
			best = s
		}
	}
	return best, nil
}

// MerchantSpending totals spending per merchant over individual
// transactions, ordered from smallest to largest total.
func MerchantSpending(txns []model.Transaction) []model.Spending {
	index := make(map[string]int)
	var out []model.Spending
	for _, tx := range txns {
		i, ok := index[tx.Merchant]
		if !ok {
			i = len(out)
			index[tx.Merchant] = i
			out = append(out, model.Spending{Merchant: tx.Merchant, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount).Round(2)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.LessThan(out[j].Amount)
	})
	return out
}

// CounterDisplayName removes every occurrence of prefix from a counter name.
func CounterDisplayName(name, prefix string) string {
	if prefix == "" {
		return name
	}
	return strings.ReplaceAll(name, prefix, "")
}
