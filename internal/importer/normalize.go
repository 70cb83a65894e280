package importer

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/mealtrail/mealtrail/internal/model"
)

// DiningSummaries are the transaction-type labels that mark a dining purchase.
var DiningSummaries = []string{"持卡人消费", "实体卡", "离线码在线消费", "nfc卡消费"}

// timestampLayouts are tried in order when parsing txdate.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"20060102150405",
	"2006-01-02",
}

// RowError reports a dining row whose date or amount cannot be used.
type RowError struct {
	Index int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: parsing %s: %v", e.Index, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// IsDining reports whether a row is a dining purchase: a whitelisted summary
// and a non-empty merchant name.
func IsDining(row model.RawRow) bool {
	return row.HasMerName && row.MerName != "" && slices.Contains(DiningSummaries, row.Summary)
}

// Normalize filters rows to dining purchases and returns them as
// Transactions in ascending time order. Rows with equal timestamps keep
// their source order. Returns model.ErrEmptyDataset when nothing remains.
func Normalize(rows []model.RawRow) ([]model.Transaction, error) {
	var txns []model.Transaction
	for _, row := range rows {
		if !IsDining(row) {
			continue
		}
		txn, err := normalizeRow(row)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	if len(txns) == 0 {
		return nil, model.ErrEmptyDataset
	}

	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Timestamp.Before(txns[j].Timestamp)
	})
	return txns, nil
}

func normalizeRow(row model.RawRow) (model.Transaction, error) {
	ts, err := ParseTimestamp(row.TxDate)
	if err != nil {
		return model.Transaction{}, &RowError{Index: row.Index, Field: fieldTxDate, Err: err}
	}
	if !row.HasTxAmt {
		return model.Transaction{}, &RowError{Index: row.Index, Field: fieldTxAmt, Err: fmt.Errorf("missing amount")}
	}

	return model.Transaction{
		Timestamp: ts,
		Amount:    row.TxAmt.Shift(-2).Round(2),
		Location:  row.MerAddr,
		Merchant:  row.MerName,
		Username:  row.Username,
	}, nil
}

// ParseTimestamp parses a txdate string in any of the layouts the service
// has been seen to emit.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
