package report

import (
	"github.com/shopspring/decimal"

	"github.com/mealtrail/mealtrail/internal/model"
	"github.com/mealtrail/mealtrail/internal/stats"
)

// TimeLayout formats timestamps in documents and text output.
const TimeLayout = "2006-01-02 15:04:05"

// Document is the JSON form of a Report. Amounts are decimal strings with two
// places.
type Document struct {
	RunID            string         `json:"run_id"`
	Username         string         `json:"username"`
	Costs            CostsDoc       `json:"costs"`
	TopLocations     []RankedDoc    `json:"top_locations"`
	TopCounters      []RankedDoc    `json:"top_counters"`
	Earliest         SessionDoc     `json:"earliest"`
	Latest           SessionDoc     `json:"latest"`
	MostExpensive    SessionDoc     `json:"most_expensive"`
	MerchantSpending []SpendingDoc  `json:"merchant_spending"`
	Sessions         []SessionDoc   `json:"sessions"`
	Shower           ShowerDoc      `json:"shower"`
	Card             CardDoc        `json:"card"`
	Violations       []ViolationDoc `json:"violations,omitempty"`
}

// CostsDoc is the JSON form of stats.Costs.
type CostsDoc struct {
	Total    string `json:"total"`
	Average  string `json:"average"`
	Sessions int    `json:"sessions"`
}

// RankedDoc is one ranking entry. Display is set for counters.
type RankedDoc struct {
	Name    string `json:"name"`
	Display string `json:"display,omitempty"`
	Count   int    `json:"count"`
}

// SessionDoc is the JSON form of a session.
type SessionDoc struct {
	ID        string   `json:"id"`
	Start     string   `json:"start"`
	Location  string   `json:"location"`
	Counter   string   `json:"counter"`
	Merchants []string `json:"merchants"`
	Total     string   `json:"total"`
}

// SpendingDoc is the total spent at one merchant.
type SpendingDoc struct {
	Merchant string `json:"merchant"`
	Amount   string `json:"amount"`
}

// ShowerDoc is the JSON form of the shower stats.
type ShowerDoc struct {
	Count               int    `json:"count"`
	Amount              string `json:"amount"`
	WeightPounds        string `json:"weight_pounds"`
	AverageAmount       string `json:"average_amount"`
	AverageWeightPounds string `json:"average_weight_pounds"`
}

// CardDoc is the JSON form of the card-reissue stats.
type CardDoc struct {
	Count         int    `json:"count"`
	Amount        string `json:"amount"`
	AverageAmount string `json:"average_amount"`
	Message       string `json:"message"`
}

// ViolationDoc is one failed merge check.
type ViolationDoc struct {
	Rule        string `json:"rule"`
	Session     string `json:"session"`
	Description string `json:"description"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// Document converts r to its JSON form.
func (r *Report) Document() Document {
	doc := Document{
		RunID:    r.RunID,
		Username: r.Username,
		Shower: ShowerDoc{
			Count:               r.Shower.Count,
			Amount:              money(r.Shower.Amount),
			WeightPounds:        money(r.Shower.WeightPounds),
			AverageAmount:       money(r.Shower.AverageAmount),
			AverageWeightPounds: money(r.Shower.AverageWeightPounds),
		},
		Card: CardDoc{
			Count:         r.Card.Count,
			Amount:        money(r.Card.Amount),
			AverageAmount: money(r.Card.AverageAmount()),
			Message:       r.Card.Message,
		},
		Sessions: make([]SessionDoc, 0, len(r.Sessions)),
	}
	for _, s := range r.Sessions {
		doc.Sessions = append(doc.Sessions, r.sessionDoc(s))
	}
	for _, v := range r.Violations {
		doc.Violations = append(doc.Violations, ViolationDoc{Rule: v.Rule, Session: v.SessionID, Description: v.Description})
	}

	if sum := r.Summary; sum != nil {
		doc.Costs = CostsDoc{Total: money(sum.Costs.Total), Average: money(sum.Costs.Average), Sessions: sum.Costs.Sessions}
		for _, l := range sum.TopLocations {
			doc.TopLocations = append(doc.TopLocations, RankedDoc{Name: l.Key, Count: l.Count})
		}
		for _, c := range sum.TopCounters {
			doc.TopCounters = append(doc.TopCounters, RankedDoc{
				Name:    c.Key,
				Display: stats.CounterDisplayName(c.Key, r.CounterPrefix),
				Count:   c.Count,
			})
		}
		doc.Earliest = r.sessionDoc(sum.Earliest)
		doc.Latest = r.sessionDoc(sum.Latest)
		doc.MostExpensive = r.sessionDoc(sum.MostExpensive)
		for _, sp := range sum.MerchantSpending {
			doc.MerchantSpending = append(doc.MerchantSpending, SpendingDoc{Merchant: sp.Merchant, Amount: money(sp.Amount)})
		}
	}
	return doc
}

func (r *Report) sessionDoc(s model.Session) SessionDoc {
	return SessionDoc{
		ID:        s.ID,
		Start:     s.StartTimestamp.Format(TimeLayout),
		Location:  s.Location,
		Counter:   stats.CounterDisplayName(s.Counter(), r.CounterPrefix),
		Merchants: s.Merchants,
		Total:     money(s.TotalAmount),
	}
}
