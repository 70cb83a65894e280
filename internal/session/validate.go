package session

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mealtrail/mealtrail/internal/id"
	"github.com/mealtrail/mealtrail/internal/model"
)

// Rule names reported by Validate.
const (
	RulePartition    = "partition"
	RuleConservation = "conservation"
	RulePrecision    = "precision"
	RuleOrder        = "order"
	RuleLocation     = "location"
	RuleWindow       = "window"
	RuleUniqueID     = "unique-id"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Rule        string
	SessionID   string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.SessionID, e.Description)
}

// Validate checks sessions against the transactions they were merged from.
func Validate(txns []model.Transaction, sessions []model.Session, window time.Duration) []ValidationError {
	var errs []ValidationError
	add := func(rule, sid, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, SessionID: sid, Description: fmt.Sprintf(format, args...)})
	}

	total := 0
	for _, s := range sessions {
		total += s.Size()
	}
	if total != len(txns) {
		add(RulePartition, "*", "sessions cover %d transactions, have %d", total, len(txns))
		return errs
	}

	hundred := decimal.NewFromInt(100)
	seen := make(map[string]bool, len(sessions))
	next := 0
	for i, s := range sessions {
		members := txns[next : next+s.Size()]
		next += s.Size()

		if s.ID != "" {
			if seen[s.ID] {
				add(RuleUniqueID, s.ID, "duplicate session ID")
			}
			seen[s.ID] = true

			day, _, err := id.ParseSessionID(s.ID)
			if err != nil {
				add(RuleUniqueID, s.ID, "%v", err)
			} else if day.Format(time.DateOnly) != s.StartTimestamp.Format(time.DateOnly) {
				add(RuleUniqueID, s.ID, "ID day does not match start %s", s.StartTimestamp.Format(time.DateOnly))
			}
		}

		if i > 0 && s.StartTimestamp.Before(sessions[i-1].StartTimestamp) {
			add(RuleOrder, s.ID, "starts %s before previous session", s.StartTimestamp.Format(time.DateTime))
		}

		sum := decimal.Zero
		for j, tx := range members {
			sum = sum.Add(tx.Amount).Round(2)
			if tx.Merchant != s.Merchants[j] {
				add(RulePartition, s.ID, "merchant %d is %q, transaction has %q", j, s.Merchants[j], tx.Merchant)
			}
			if tx.Location != s.Location {
				add(RuleLocation, s.ID, "transaction at %q, session at %q", tx.Location, s.Location)
			}
			if d := tx.Timestamp.Sub(s.StartTimestamp); d < 0 || d > window {
				add(RuleWindow, s.ID, "transaction %s is %s from session start", tx.Timestamp.Format(time.DateTime), d)
			}
		}
		if len(members) > 0 && !members[0].Timestamp.Equal(s.StartTimestamp) {
			add(RuleOrder, s.ID, "start %s does not match first transaction", s.StartTimestamp.Format(time.DateTime))
		}

		if !sum.Equal(s.TotalAmount) {
			add(RuleConservation, s.ID, "total %s != sum of transactions %s", s.TotalAmount.StringFixed(2), sum.StringFixed(2))
		}
		if scaled := s.TotalAmount.Mul(hundred); !scaled.Equal(scaled.Floor()) {
			add(RulePrecision, s.ID, "total %s has more than 2 decimal places", s.TotalAmount)
		}
	}

	return errs
}
