package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealtrail/mealtrail/internal/model"
)

func sess(id string, start time.Time, location, total string, merchants ...string) model.Session {
	return model.Session{
		ID:             id,
		StartTimestamp: start,
		TotalAmount:    decimal.RequireFromString(total),
		Location:       location,
		Merchants:      merchants,
	}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, time.UTC)
}

func sampleSessions() []model.Session {
	return []model.Session{
		sess("s1", at(1, 12, 0), "紫荆园", "8.00", "紫荆园_米饭", "紫荆园_汤"),
		sess("s2", at(1, 18, 0), "桃李园", "12.50", "桃李园_面食"),
		sess("s3", at(2, 7, 10), "紫荆园", "4.00", "紫荆园_米饭"),
		sess("s4", at(2, 23, 40), "听涛园", "15.00", "听涛园_夜宵"),
		sess("s5", at(3, 12, 0), "桃李园", "15.00", "桃李园_面食"),
		sess("s6", at(4, 7, 10), "观畴园", "3.00", "紫荆园_米饭"),
	}
}

func TestComputeCosts(t *testing.T) {
	c := ComputeCosts(sampleSessions())
	assert.Equal(t, "57.50", c.Total.StringFixed(2))
	assert.Equal(t, "9.58", c.Average.StringFixed(2))
	assert.Equal(t, 6, c.Sessions)
}

func TestComputeCosts_Empty(t *testing.T) {
	c := ComputeCosts(nil)
	assert.True(t, c.Total.IsZero())
	assert.True(t, c.Average.IsZero())
	assert.Equal(t, 0, c.Sessions)
}

func TestTopLocations(t *testing.T) {
	got, err := TopLocations(sampleSessions(), 3)
	require.NoError(t, err)
	assert.Equal(t, []model.Ranked{
		{Key: "紫荆园", Count: 2},
		{Key: "桃李园", Count: 2},
		{Key: "听涛园", Count: 1},
	}, got)
}

func TestTopLocations_Bounds(t *testing.T) {
	sessions := sampleSessions()
	for _, n := range []int{0, 1, 2, 3, 4, 10} {
		got, err := TopLocations(sessions, n)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), n)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Count, got[i].Count)
		}
	}

	all, err := TopLocations(sessions, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := TopLocations(sessions, -1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTopCounters(t *testing.T) {
	got, err := TopCounters(sampleSessions(), 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.Ranked{Key: "紫荆园_米饭", Count: 3}, got[0])
	assert.Equal(t, model.Ranked{Key: "桃李园_面食", Count: 2}, got[1])
	assert.Equal(t, model.Ranked{Key: "听涛园_夜宵", Count: 1}, got[2])
}

func TestTimeBounds(t *testing.T) {
	earliest, latest, err := TimeBounds(sampleSessions())
	require.NoError(t, err)
	// s3 and s6 tie at 07:10; the earlier calendar occurrence wins.
	assert.Equal(t, "s3", earliest.ID)
	assert.Equal(t, "s4", latest.ID)
}

func TestTimeBounds_IgnoresDate(t *testing.T) {
	sessions := []model.Session{
		sess("jan", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), "L", "1.00", "A"),
		sess("dec", time.Date(2025, 12, 31, 8, 59, 59, 0, time.UTC), "L", "1.00", "A"),
	}
	earliest, latest, err := TimeBounds(sessions)
	require.NoError(t, err)
	assert.Equal(t, "dec", earliest.ID)
	assert.Equal(t, "jan", latest.ID)
}

func TestMaxCost(t *testing.T) {
	s, err := MaxCost(sampleSessions())
	require.NoError(t, err)
	// s4 and s5 tie at 15.00.
	assert.Equal(t, "s4", s.ID)
}

func TestEmptyDataset(t *testing.T) {
	_, err := TopLocations(nil, 3)
	assert.ErrorIs(t, err, model.ErrEmptyDataset)
	_, err = TopCounters(nil, 5)
	assert.ErrorIs(t, err, model.ErrEmptyDataset)
	_, _, err = TimeBounds(nil)
	assert.ErrorIs(t, err, model.ErrEmptyDataset)
	_, err = MaxCost(nil)
	assert.ErrorIs(t, err, model.ErrEmptyDataset)
	_, err = Summarize(nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, model.ErrEmptyDataset)
}

func TestMerchantSpending(t *testing.T) {
	txns := []model.Transaction{
		{Merchant: "A", Amount: decimal.RequireFromString("5.00")},
		{Merchant: "B", Amount: decimal.RequireFromString("3.00")},
		{Merchant: "A", Amount: decimal.RequireFromString("0.10")},
		{Merchant: "C", Amount: decimal.RequireFromString("3.00")},
	}
	got := MerchantSpending(txns)
	require.Len(t, got, 3)
	assert.Equal(t, "B", got[0].Merchant)
	assert.Equal(t, "C", got[1].Merchant)
	assert.Equal(t, "A", got[2].Merchant)
	assert.Equal(t, "5.10", got[2].Amount.StringFixed(2))

	assert.Empty(t, MerchantSpending(nil))
}

func TestCounterDisplayName(t *testing.T) {
	tests := []struct {
		name, prefix, want string
	}{
		{"紫荆园_米饭", "园_", "紫荆米饭"},
		{"米饭", "园_", "米饭"},
		{"紫荆园_米饭", "", "紫荆园_米饭"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CounterDisplayName(tt.name, tt.prefix))
	}
}

func TestSummarize(t *testing.T) {
	sessions := sampleSessions()
	txns := []model.Transaction{{Merchant: "A", Amount: decimal.RequireFromString("1.00")}}

	sum, err := Summarize(sessions, txns, Options{TopLocations: 2, TopCounters: 1})
	require.NoError(t, err)
	assert.Len(t, sum.TopLocations, 2)
	assert.Len(t, sum.TopCounters, 1)
	assert.Equal(t, "s3", sum.Earliest.ID)
	assert.Equal(t, "s4", sum.Latest.ID)
	assert.Equal(t, "s4", sum.MostExpensive.ID)
	assert.Equal(t, "57.50", sum.Costs.Total.StringFixed(2))
	assert.Len(t, sum.MerchantSpending, 1)
}
