package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dayFormat = "20060102"

// FormatSessionID returns a session ID like "20250301-001".
func FormatSessionID(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%03d", day.Format(dayFormat), seq)
}

// ParseSessionID parses "20250301-001" into its day and sequence.
func ParseSessionID(id string) (day time.Time, seq int, err error) {
	datePart, seqPart, ok := strings.Cut(id, "-")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("invalid session ID format: %q", id)
	}

	day, err = time.Parse(dayFormat, datePart)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid day in session ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(seqPart)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid sequence in session ID %q: %w", id, err)
	}
	if seq < 1 {
		return time.Time{}, 0, fmt.Errorf("invalid sequence in session ID %q: must be >= 1", id)
	}

	return day, seq, nil
}

// Sequencer hands out per-day sequence numbers starting at 1.
type Sequencer struct {
	day  string
	next int
}

// Next returns the ID for the next session starting on t's day. Calls must
// be made in chronological order.
func (s *Sequencer) Next(t time.Time) string {
	d := t.Format(dayFormat)
	if d != s.day {
		s.day = d
		s.next = 1
	}
	out := FormatSessionID(t, s.next)
	s.next++
	return out
}
