package importer

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealtrail/mealtrail/internal/model"
)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestNormalize_Filter(t *testing.T) {
	rows := []model.RawRow{
		rawRow(0, "持卡人消费", "A", "L1", 500, "2025-03-01 12:00:00"),
		rawRow(1, "实体卡", "B", "L1", 100, "2025-03-01 12:01:00"),
		rawRow(2, "离线码在线消费", "C", "L2", 100, "2025-03-01 12:02:00"),
		rawRow(3, "nfc卡消费", "D", "L2", 100, "2025-03-01 12:03:00"),
		rawRow(4, "水控POS消费流水", "三区淋浴", "L3", 200, "2025-03-01 12:04:00"),
		rawRow(5, "自助补卡账户余额扣费", "学生卡成本", "L4", 2000, "2025-03-01 12:05:00"),
		rawRow(6, "持卡人消费", "", "L1", 100, "2025-03-01 12:06:00"),
	}
	noMerchant := rawRow(7, "持卡人消费", "", "L1", 100, "2025-03-01 12:07:00")
	noMerchant.HasMerName = false
	rows = append(rows, noMerchant)

	txns, err := Normalize(rows)
	require.NoError(t, err)
	require.Len(t, txns, 4)

	merchants := make([]string, len(txns))
	for i, txn := range txns {
		merchants[i] = txn.Merchant
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, merchants)
}

func TestNormalize_Amount(t *testing.T) {
	tests := []struct {
		txamt string
		want  string
	}{
		{"500", "5.00"},
		{"1", "0.01"},
		{"1299", "12.99"},
		{"0", "0.00"},
		{"12.5", "0.13"},
		{"-300", "-3.00"},
	}
	for _, tt := range tests {
		row := rawRow(0, "持卡人消费", "A", "L1", 0, "2025-03-01 12:00:00")
		row.TxAmt = decimal.RequireFromString(tt.txamt)

		txns, err := Normalize([]model.RawRow{row})
		require.NoError(t, err)
		assert.Equal(t, tt.want, txns[0].Amount.StringFixed(2), "txamt %s", tt.txamt)
	}
}

func TestNormalize_StableOrder(t *testing.T) {
	rows := []model.RawRow{
		rawRow(0, "持卡人消费", "late", "L1", 100, "2025-03-02 08:00:00"),
		rawRow(1, "持卡人消费", "tie-first", "L1", 100, "2025-03-01 12:00:00"),
		rawRow(2, "持卡人消费", "early", "L1", 100, "2025-03-01 07:00:00"),
		rawRow(3, "持卡人消费", "tie-second", "L1", 100, "2025-03-01T12:00:00"),
	}

	txns, err := Normalize(rows)
	require.NoError(t, err)
	require.Len(t, txns, 4)
	assert.Equal(t, "early", txns[0].Merchant)
	assert.Equal(t, "tie-first", txns[1].Merchant)
	assert.Equal(t, "tie-second", txns[2].Merchant)
	assert.Equal(t, "late", txns[3].Merchant)
}

func TestNormalize_Fields(t *testing.T) {
	txns, err := Normalize([]model.RawRow{rawRow(0, "持卡人消费", "A", "L1", 500, "2025-03-01T12:00:00")})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), txns[0].Timestamp)
	assert.Equal(t, "L1", txns[0].Location)
	assert.Equal(t, "A", txns[0].Merchant)
	assert.Equal(t, "小明", txns[0].Username)
}

func TestNormalize_Empty(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, model.ErrEmptyDataset)

	_, err = Normalize([]model.RawRow{rawRow(0, "水控POS消费流水", "三区淋浴", "L3", 200, "2025-03-01 12:04:00")})
	assert.ErrorIs(t, err, model.ErrEmptyDataset)
}

func TestNormalize_BadDate(t *testing.T) {
	_, err := Normalize([]model.RawRow{rawRow(3, "持卡人消费", "A", "L1", 500, "NOTADATE")})
	require.Error(t, err)

	var re *RowError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 3, re.Index)
	assert.Contains(t, err.Error(), "parsing txdate")
}

func TestNormalize_MissingAmount(t *testing.T) {
	row := rawRow(0, "持卡人消费", "A", "L1", 0, "2025-03-01 12:00:00")
	row.HasTxAmt = false
	_, err := Normalize([]model.RawRow{row})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing txamt")
}

func TestNormalize_BadRowOutsideWhitelistIgnored(t *testing.T) {
	rows := []model.RawRow{
		rawRow(0, "水控POS消费流水", "三区淋浴", "L3", 200, "NOTADATE"),
		rawRow(1, "持卡人消费", "A", "L1", 500, "2025-03-01 12:00:00"),
	}
	txns, err := Normalize(rows)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 30, 5, 0, time.UTC)
	for _, s := range []string{
		"2025-03-01 12:30:05",
		"2025-03-01T12:30:05",
		"2025-03-01T12:30:05Z",
		"2025/03/01 12:30:05",
		"20250301123005",
	} {
		got, err := ParseTimestamp(s)
		require.NoError(t, err, "input %q", s)
		assert.True(t, want.Equal(got), "input %q: got %s", s, got)
	}

	_, err := ParseTimestamp("")
	assert.Error(t, err)
	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}
