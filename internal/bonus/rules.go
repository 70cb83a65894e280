// Package bonus tags raw rows with keyword rules and totals shower usage and
// card-reissue fees.
//
// It reads the unfiltered row list: shower and reissue rows carry summaries
// outside the dining whitelist.
package bonus

import (
	"strings"

	"github.com/mealtrail/mealtrail/internal/model"
)

// Tag names a classification.
type Tag string

const (
	TagShower      Tag = "shower"
	TagCardReissue Tag = "card_reissue"
)

// Matcher reports whether a row satisfies a condition.
type Matcher func(model.RawRow) bool

// Rule assigns Tag to every row Match accepts.
type Rule struct {
	Tag   Tag
	Match Matcher
}

// Keyword sets for shower rows. Exclusions win over inclusions.
var (
	ShowerKeywords       = []string{"淋浴", "澡", "浴室", "洗澡"}
	ShowerExcludeKeyword = []string{"饮水", "直饮", "开水", "热水", "水房", "BOT"}
)

const (
	showerSummary      = "水控POS消费流水"
	cardReissueSummary = "自助补卡账户余额扣费"
	cardCostName       = "学生卡成本"
)

// ShowerRule matches water-control POS rows whose merchant names a shower
// and no drinking-water facility.
var ShowerRule = Rule{
	Tag: TagShower,
	Match: All(
		SummaryIs(showerSummary),
		Not(MerNameContainsAny(ShowerExcludeKeyword...)),
		MerNameContainsAny(ShowerKeywords...),
	),
}

// CardReissueRule matches replacement-card charges.
var CardReissueRule = Rule{
	Tag: TagCardReissue,
	Match: Any(
		SummaryIs(cardReissueSummary),
		MerNameIs(cardCostName),
		MerAddrIs(cardCostName),
	),
}

// DefaultRules is the ordered rule list used by Classify.
var DefaultRules = []Rule{ShowerRule, CardReissueRule}

// SummaryIs matches rows whose summary equals s.
func SummaryIs(s string) Matcher {
	return func(r model.RawRow) bool { return r.Summary == s }
}

// MerNameIs matches rows whose merchant name equals s.
func MerNameIs(s string) Matcher {
	return func(r model.RawRow) bool { return r.MerName == s }
}

// MerAddrIs matches rows whose merchant address equals s.
func MerAddrIs(s string) Matcher {
	return func(r model.RawRow) bool { return r.MerAddr == s }
}

// MerNameContainsAny matches rows whose merchant name contains any keyword.
func MerNameContainsAny(keywords ...string) Matcher {
	return func(r model.RawRow) bool {
		for _, kw := range keywords {
			if strings.Contains(r.MerName, kw) {
				return true
			}
		}
		return false
	}
}

// All matches when every matcher does, checked in order.
func All(ms ...Matcher) Matcher {
	return func(r model.RawRow) bool {
		for _, m := range ms {
			if !m(r) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one matcher does.
func Any(ms ...Matcher) Matcher {
	return func(r model.RawRow) bool {
		for _, m := range ms {
			if m(r) {
				return true
			}
		}
		return false
	}
}

// Not inverts m.
func Not(m Matcher) Matcher {
	return func(r model.RawRow) bool { return !m(r) }
}
