package session

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealtrail/mealtrail/internal/model"
)

func sampleTxns() []model.Transaction {
	return []model.Transaction{
		txn(0, "L1", "A", "5.00"),
		txn(30*time.Minute, "L1", "B", "3.00"),
		txn(5*time.Hour, "L2", "C", "9.50"),
	}
}

func rules(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Rule
	}
	return out
}

func TestValidate_Clean(t *testing.T) {
	txns := sampleTxns()
	assert.Empty(t, Validate(txns, Merge(txns, DefaultWindow), DefaultWindow))
}

func TestValidate_Partition(t *testing.T) {
	txns := sampleTxns()
	sessions := Merge(txns, DefaultWindow)
	errs := Validate(txns[:2], sessions, DefaultWindow)
	require.Len(t, errs, 1)
	assert.Equal(t, RulePartition, errs[0].Rule)
}

func TestValidate_Conservation(t *testing.T) {
	txns := sampleTxns()
	sessions := Merge(txns, DefaultWindow)
	sessions[0].TotalAmount = decimal.RequireFromString("8.01")

	errs := Validate(txns, sessions, DefaultWindow)
	assert.Equal(t, []string{RuleConservation}, rules(errs))
	assert.Contains(t, errs[0].Error(), "8.01")
}

func TestValidate_Precision(t *testing.T) {
	txns := []model.Transaction{txn(0, "L1", "A", "1.005")}
	sessions := []model.Session{{
		ID:             "20250301-001",
		StartTimestamp: base,
		TotalAmount:    decimal.RequireFromString("1.005"),
		Location:       "L1",
		Merchants:      []string{"A"},
	}}
	errs := Validate(txns, sessions, DefaultWindow)
	assert.Contains(t, rules(errs), RulePrecision)
}

func TestValidate_LocationAndWindow(t *testing.T) {
	txns := []model.Transaction{
		txn(0, "L1", "A", "1.00"),
		txn(3*time.Hour, "L2", "B", "1.00"),
	}
	sessions := []model.Session{{
		ID:             "20250301-001",
		StartTimestamp: base,
		TotalAmount:    decimal.RequireFromString("2.00"),
		Location:       "L1",
		Merchants:      []string{"A", "B"},
	}}
	errs := Validate(txns, sessions, DefaultWindow)
	assert.ElementsMatch(t, []string{RuleLocation, RuleWindow}, rules(errs))
}

func TestValidate_DuplicateIDAndOrder(t *testing.T) {
	txns := sampleTxns()
	sessions := Merge(txns, DefaultWindow)
	sessions[1].ID = sessions[0].ID

	errs := Validate(txns, sessions, DefaultWindow)
	assert.Equal(t, []string{RuleUniqueID}, rules(errs))

	swapped := []model.Session{sessions[1], sessions[0]}
	errs = Validate([]model.Transaction{txns[2], txns[0], txns[1]}, swapped, DefaultWindow)
	assert.Contains(t, rules(errs), RuleOrder)
}

func TestValidate_IDFormat(t *testing.T) {
	txns := sampleTxns()

	sessions := Merge(txns, DefaultWindow)
	sessions[0].ID = "meal-one"
	errs := Validate(txns, sessions, DefaultWindow)
	assert.Equal(t, []string{RuleUniqueID}, rules(errs))

	sessions = Merge(txns, DefaultWindow)
	sessions[1].ID = "20250302-001"
	errs = Validate(txns, sessions, DefaultWindow)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "does not match start 2025-03-01")
}
