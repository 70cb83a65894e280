// Package export writes sessions and transactions as CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mealtrail/mealtrail/internal/model"
)

// Headers of the two CSV files.
const (
	SessionHeader     = "session_id,start,location,counter,merchants,total,username"
	TransactionHeader = "timestamp,location,merchant,amount,username"
)

// timeFormat keeps sub-second precision and the UTC offset.
const timeFormat = time.RFC3339Nano

const (
	numSessionFields = 7
	colSessID        = 0
	colSessStart     = 1
	colSessLocation  = 2
	colSessCounter   = 3
	colSessMerchants = 4
	colSessTotal     = 5
	colSessUsername  = 6
)

const (
	numTxnFields   = 5
	colTxnTime     = 0
	colTxnLocation = 1
	colTxnMerchant = 2
	colTxnAmount   = 3
	colTxnUsername = 4
)

// WriteSessions writes sessions (including header).
func WriteSessions(w io.Writer, sessions []model.Session) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(SessionHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, s := range sessions {
		if err := cw.Write(MarshalSession(s)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSessions reads sessions written by WriteSessions.
func ReadSessions(r io.Reader) ([]model.Session, error) {
	records, err := readAll(r, numSessionFields)
	if err != nil {
		return nil, fmt.Errorf("reading sessions CSV: %w", err)
	}

	var sessions []model.Session
	for i, rec := range records {
		s, err := UnmarshalSession(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// MarshalSession converts a Session to a CSV row. Merchants are a JSON
// array so any name survives. The counter column is informational and
// ignored by UnmarshalSession.
func MarshalSession(s model.Session) []string {
	row := make([]string, numSessionFields)
	row[colSessID] = s.ID
	row[colSessStart] = s.StartTimestamp.Format(timeFormat)
	row[colSessLocation] = s.Location
	row[colSessCounter] = s.Counter()
	row[colSessMerchants] = marshalMerchants(s.Merchants)
	row[colSessTotal] = s.TotalAmount.StringFixed(2)
	row[colSessUsername] = s.Username
	return row
}

// UnmarshalSession converts a CSV row to a Session.
func UnmarshalSession(record []string) (model.Session, error) {
	if len(record) != numSessionFields {
		return model.Session{}, fmt.Errorf("expected %d fields, got %d", numSessionFields, len(record))
	}

	start, err := time.Parse(timeFormat, record[colSessStart])
	if err != nil {
		return model.Session{}, fmt.Errorf("parsing start %q: %w", record[colSessStart], err)
	}
	total, err := decimal.NewFromString(record[colSessTotal])
	if err != nil {
		return model.Session{}, fmt.Errorf("parsing total %q: %w", record[colSessTotal], err)
	}

	merchants, err := unmarshalMerchants(record[colSessMerchants])
	if err != nil {
		return model.Session{}, fmt.Errorf("parsing merchants %q: %w", record[colSessMerchants], err)
	}

	return model.Session{
		ID:             record[colSessID],
		StartTimestamp: start,
		TotalAmount:    total,
		Location:       record[colSessLocation],
		Merchants:      merchants,
		Username:       record[colSessUsername],
	}, nil
}

// WriteTransactions writes transactions (including header).
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(TransactionHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txns {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTransactions reads transactions written by WriteTransactions.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	records, err := readAll(r, numTxnFields)
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	var txns []model.Transaction
	for i, rec := range records {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, tx)
	}
	return txns, nil
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numTxnFields)
	row[colTxnTime] = tx.Timestamp.Format(timeFormat)
	row[colTxnLocation] = tx.Location
	row[colTxnMerchant] = tx.Merchant
	row[colTxnAmount] = tx.Amount.StringFixed(2)
	row[colTxnUsername] = tx.Username
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numTxnFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numTxnFields, len(record))
	}

	ts, err := time.Parse(timeFormat, record[colTxnTime])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTxnTime], err)
	}
	amount, err := decimal.NewFromString(record[colTxnAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colTxnAmount], err)
	}

	return model.Transaction{
		Timestamp: ts,
		Amount:    amount,
		Location:  record[colTxnLocation],
		Merchant:  record[colTxnMerchant],
		Username:  record[colTxnUsername],
	}, nil
}

func marshalMerchants(merchants []string) string {
	if merchants == nil {
		merchants = []string{}
	}
	// Marshaling a string slice cannot fail.
	data, _ := json.Marshal(merchants)
	return string(data)
}

func unmarshalMerchants(col string) ([]string, error) {
	var merchants []string
	if err := json.Unmarshal([]byte(col), &merchants); err != nil {
		return nil, err
	}
	if len(merchants) == 0 {
		return nil, nil
	}
	return merchants, nil
}

// readAll returns the data records, without the header.
func readAll(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}
