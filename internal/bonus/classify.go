package bonus

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mealtrail/mealtrail/internal/model"
)

// ShowerTariff is the price of one pound of shower water in yuan.
var ShowerTariff = decimal.RequireFromString("0.04")

// Match records that row Index satisfied the rule for Tag.
type Match struct {
	Index int
	Tag   Tag
}

// Classify applies rules to every well-formed row and returns the matches
// in row order, then rule order. Malformed rows are skipped.
func Classify(rows []model.RawRow, rules []Rule) []Match {
	var out []Match
	for _, row := range rows {
		if row.Malformed {
			continue
		}
		for _, rule := range rules {
			if rule.Match(row) {
				out = append(out, Match{Index: row.Index, Tag: rule.Tag})
			}
		}
	}
	return out
}

// tally counts the well-formed rows matching rule and sums their amounts in
// yuan, unrounded. A row without txamt counts with a zero amount.
func tally(rows []model.RawRow, rule Rule) (int, decimal.Decimal) {
	count := 0
	amount := decimal.Zero
	for _, row := range rows {
		if row.Malformed || !rule.Match(row) {
			continue
		}
		count++
		amount = amount.Add(row.TxAmt.Shift(-2))
	}
	return count, amount
}

// Shower totals shower rows.
func Shower(rows []model.RawRow) model.ShowerStats {
	count, amount := tally(rows, ShowerRule)
	weight := amount.Div(ShowerTariff)

	stats := model.ShowerStats{
		Count:               count,
		Amount:              amount.Round(2),
		WeightPounds:        weight.Round(2),
		AverageAmount:       decimal.Zero,
		AverageWeightPounds: decimal.Zero,
	}
	if count > 0 {
		n := decimal.NewFromInt(int64(count))
		stats.AverageAmount = amount.DivRound(n, 2)
		stats.AverageWeightPounds = weight.DivRound(n, 2)
	}
	return stats
}

// Card totals card-reissue rows.
func Card(rows []model.RawRow) model.CardStats {
	count, amount := tally(rows, CardReissueRule)
	return model.CardStats{
		Count:   count,
		Amount:  amount.Round(2),
		Message: CardMessage(count),
	}
}

// CardMessage returns the remark shown for a number of card reissues.
func CardMessage(count int) string {
	switch {
	case count <= 0:
		return "真不错！一次都没丢过卡 🎉"
	case count == 1:
		return "还算小心，只丢了一次 😌"
	case count == 2:
		return "有点马虎了哦，丢了两次 😅"
	case count == 3:
		return "这...已经补了3次了 🤔"
	default:
		return fmt.Sprintf("补卡达人！已经补了%d次 😱", count)
	}
}
