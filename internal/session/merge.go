// Package session merges time-ordered dining transactions into meals.
package session

import (
	"slices"
	"time"

	"github.com/mealtrail/mealtrail/internal/id"
	"github.com/mealtrail/mealtrail/internal/model"
)

// DefaultWindow is the maximum distance from a meal's first transaction for
// a later transaction at the same location to join it.
const DefaultWindow = 120 * time.Minute

// Merge folds txns, which must be in ascending time order, into sessions.
//
// A transaction joins the open session when it is at exactly the same
// location and no more than window after the session's *first*
// transaction. The window is not measured from the previous transaction, so
// a chain of purchases 100 minutes apart still splits once it drifts past
// window from the start.
func Merge(txns []model.Transaction, window time.Duration) []model.Session {
	var (
		out  []model.Session
		cur  model.Session
		open bool
		seq  id.Sequencer
	)
	for _, tx := range txns {
		if open && joins(cur, tx, window) {
			cur = extend(cur, tx)
			continue
		}
		if open {
			out = append(out, cur)
		}
		cur = start(tx, seq.Next(tx.Timestamp))
		open = true
	}
	if open {
		out = append(out, cur)
	}
	return out
}

func joins(s model.Session, tx model.Transaction, window time.Duration) bool {
	return tx.Timestamp.Sub(s.StartTimestamp) <= window && tx.Location == s.Location
}

func start(tx model.Transaction, sessionID string) model.Session {
	return model.Session{
		ID:             sessionID,
		StartTimestamp: tx.Timestamp,
		TotalAmount:    tx.Amount.Round(2),
		Location:       tx.Location,
		Merchants:      []string{tx.Merchant},
		Username:       tx.Username,
	}
}

// extend returns s with tx added. The total is rounded to 2dp after every
// addition.
func extend(s model.Session, tx model.Transaction) model.Session {
	s.TotalAmount = s.TotalAmount.Add(tx.Amount).Round(2)
	s.Merchants = append(slices.Clip(s.Merchants), tx.Merchant)
	return s
}

// Collapse turns each session into a single transaction carrying its start
// time, location, first merchant, and total.
func Collapse(sessions []model.Session) []model.Transaction {
	txns := make([]model.Transaction, len(sessions))
	for i, s := range sessions {
		txns[i] = model.Transaction{
			Timestamp: s.StartTimestamp,
			Amount:    s.TotalAmount,
			Location:  s.Location,
			Merchant:  s.Counter(),
			Username:  s.Username,
		}
	}
	return txns
}
