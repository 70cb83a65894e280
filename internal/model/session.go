package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session is a merged meal: one or more transactions at the same location
// within the merge window of the first one.
type Session struct {
	ID             string // "YYYYMMDD-NNN"
	StartTimestamp time.Time
	TotalAmount    decimal.Decimal
	Location       string
	Merchants      []string // one per constituent transaction, in order
	Username       string
}

// TimeOfDay returns the clock-time component of the start timestamp as an
// offset from midnight.
func (s Session) TimeOfDay() time.Duration {
	t := s.StartTimestamp
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

// Counter returns the first merchant of the session, or "" if it has none.
func (s Session) Counter() string {
	if len(s.Merchants) == 0 {
		return ""
	}
	return s.Merchants[0]
}

// Size is the number of transactions merged into the session.
func (s Session) Size() int {
	return len(s.Merchants)
}

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	Key   string
	Count int
}

// Spending is the total spent at one merchant.
type Spending struct {
	Merchant string
	Amount   decimal.Decimal
}
