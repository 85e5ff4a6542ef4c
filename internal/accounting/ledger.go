package accounting

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/multiexpenses/internal/models"
)

// TypeTotals holds per-type sums of a filtered set of ledger rows.
type TypeTotals struct {
	Expense decimal.Decimal
	Income  decimal.Decimal
}

// typeSpace is the whitespace trimmed from types; the SQLite aggregates trim
// the same set.
const typeSpace = " \t\n\v\f\r"

// NormalizeType folds a transaction type for comparison ("Expense", " EXPENSE " -> "expense").
func NormalizeType(t string) string {
	return strings.ToLower(strings.Trim(t, typeSpace))
}

// IsExpense reports whether t names an expense, ignoring case.
func IsExpense(t string) bool { return NormalizeType(t) == models.TypeExpense }

// IsIncome reports whether t names an income, ignoring case.
func IsIncome(t string) bool { return NormalizeType(t) == models.TypeIncome }

// Net returns expense minus income, rounded to cents.
// Zero totals yield exactly zero.
func (t TypeTotals) Net() decimal.Decimal {
	return t.Expense.Sub(t.Income).Round(2)
}

// Add accumulates amount into the bucket matching txType. Other types are ignored.
func (t *TypeTotals) Add(txType string, amount decimal.Decimal) {
	switch NormalizeType(txType) {
	case models.TypeExpense:
		t.Expense = t.Expense.Add(amount)
	case models.TypeIncome:
		t.Income = t.Income.Add(amount)
	}
}
