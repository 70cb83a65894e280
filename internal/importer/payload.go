package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mealtrail/mealtrail/internal/model"
)

// ErrDataShape reports a payload that is valid JSON but lacks a
// resultData.rows list. Callers treat it as zero rows.
var ErrDataShape = errors.New("payload has no resultData.rows list")

// Field names of a row in resultData.rows.
const (
	fieldSummary  = "summary"
	fieldMerName  = "mername"
	fieldMerAddr  = "meraddr"
	fieldTxAmt    = "txamt"
	fieldTxDate   = "txdate"
	fieldUsername = "username"
)

// DecodePayload walks payload.resultData.rows and returns one RawRow per
// element. Invalid JSON is an error; a missing or mistyped path returns nil
// rows with an error wrapping ErrDataShape.
func DecodePayload(data []byte) ([]model.RawRow, error) {
	var top map[string]json.RawMessage
	if err := unmarshalObject(data, &top); err != nil {
		if errors.Is(err, ErrDataShape) {
			return nil, fmt.Errorf("payload: %w", err)
		}
		return nil, fmt.Errorf("parsing payload: %w", err)
	}

	var result map[string]json.RawMessage
	if err := unmarshalObject(top["resultData"], &result); err != nil {
		return nil, fmt.Errorf("resultData: %w", ErrDataShape)
	}

	rawRows, ok := rowList(result["rows"])
	if !ok {
		return nil, fmt.Errorf("resultData.rows: %w", ErrDataShape)
	}

	rows := make([]model.RawRow, 0, len(rawRows))
	for i, raw := range rawRows {
		rows = append(rows, decodeRow(i, raw))
	}
	return rows, nil
}

// unmarshalObject decodes a JSON object. Absent, null, or non-object input
// yields ErrDataShape; a syntax error is returned as is.
func unmarshalObject(raw json.RawMessage, out *map[string]json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrDataShape
	}
	if !json.Valid(trimmed) {
		var probe any
		return json.Unmarshal(trimmed, &probe)
	}
	if trimmed[0] != '{' {
		return ErrDataShape
	}
	return json.Unmarshal(trimmed, out)
}

func rowList(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		// An explicit null rows list is an empty list.
		return nil, len(trimmed) != 0
	}
	if trimmed[0] != '[' {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, false
	}
	return list, true
}

func decodeRow(index int, raw json.RawMessage) model.RawRow {
	row := model.RawRow{Index: index}

	var fields map[string]json.RawMessage
	if err := unmarshalObject(raw, &fields); err != nil {
		row.Malformed = true
		return row
	}

	str := func(name string) (string, bool) {
		v, ok := fields[name]
		if !ok {
			return "", false
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			row.Malformed = true
			return "", true
		}
		return s, true
	}

	row.Summary, _ = str(fieldSummary)
	row.MerName, row.HasMerName = str(fieldMerName)
	row.MerAddr, _ = str(fieldMerAddr)
	row.TxDate, _ = str(fieldTxDate)
	row.Username, _ = str(fieldUsername)

	if v, ok := fields[fieldTxAmt]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		amt, err := decodeAmount(v)
		if err != nil {
			row.Malformed = true
		} else {
			row.TxAmt = amt
			row.HasTxAmt = true
		}
	}
	return row
}

func decodeAmount(raw json.RawMessage) (decimal.Decimal, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}
