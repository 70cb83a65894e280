package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmptyDataset is returned when no dining transactions or sessions remain
// after filtering and merging.
var ErrEmptyDataset = errors.New("no dining transactions in dataset")

// RawRow is one entry of resultData.rows as received after decryption.
// Any field may be absent; Has* flags record presence.
type RawRow struct {
	Index    int // position in the source rows list
	Summary  string
	MerName  string
	MerAddr  string
	TxAmt    decimal.Decimal // minor units (cents)
	TxDate   string
	Username string

	HasMerName bool
	HasTxAmt   bool
	// Malformed is set when the row was not a JSON object or a field had
	// the wrong JSON type.
	Malformed bool
}

// Transaction is a dining purchase after normalization.
type Transaction struct {
	Timestamp time.Time
	Amount    decimal.Decimal // currency units, 2dp
	Location  string
	Merchant  string
	Username  string
}
