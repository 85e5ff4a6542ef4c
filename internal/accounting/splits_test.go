package accounting

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/multiexpenses/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func split(user, amount string) models.Split {
	return models.Split{UserID: user, Amount: d(amount)}
}

func TestValidateSplits(t *testing.T) {
	members := []string{"u1", "u2", "u3"}

	tests := []struct {
		name     string
		amount   string
		splits   []models.Split
		wantKind SplitErrorKind
		wantIDs  []string
	}{
		{
			name:   "no splits is valid",
			amount: "300",
		},
		{
			name:   "exact sum",
			amount: "300",
			splits: []models.Split{split("u1", "100"), split("u2", "200")},
		},
		{
			name:   "within tolerance",
			amount: "300",
			splits: []models.Split{split("u1", "100"), split("u2", "199.99")},
		},
		{
			name:   "tolerance boundary is inclusive",
			amount: "100",
			splits: []models.Split{split("u1", "50"), split("u2", "50.01")},
		},
		{
			name:     "just outside tolerance",
			amount:   "300",
			splits:   []models.Split{split("u1", "100"), split("u2", "199.98")},
			wantKind: SplitSumMismatch,
		},
		{
			name:     "sum far off",
			amount:   "300",
			splits:   []models.Split{split("u1", "100"), split("u2", "198")},
			wantKind: SplitSumMismatch,
		},
		{
			name:     "non-members are all named once",
			amount:   "300",
			splits:   []models.Split{split("u1", "100"), split("x", "100"), split("y", "50"), split("x", "50")},
			wantKind: NonMemberSplit,
			wantIDs:  []string{"x", "y"},
		},
		{
			name:     "membership is checked before sum",
			amount:   "1",
			splits:   []models.Split{split("x", "100")},
			wantKind: NonMemberSplit,
			wantIDs:  []string{"x"},
		},
		{
			name:     "negative split",
			amount:   "100",
			splits:   []models.Split{split("u1", "150"), split("u2", "-50")},
			wantKind: NegativeSplit,
			wantIDs:  []string{"u2"},
		},
		{
			name:   "zero amount with zero splits",
			amount: "0",
			splits: []models.Split{split("u1", "0"), split("u3", "0")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplits(d(tt.amount), tt.splits, members)
			if tt.wantKind == 0 {
				assert.NoError(t, err)
				return
			}

			var splitErr *SplitError
			require.True(t, errors.As(err, &splitErr), "expected *SplitError, got %v", err)
			assert.Equal(t, tt.wantKind, splitErr.Kind)
			if tt.wantIDs != nil {
				assert.Equal(t, tt.wantIDs, splitErr.UserIDs)
			}
			assert.NotEmpty(t, splitErr.Error())
		})
	}
}

func TestSplitErrorMessageNamesUsers(t *testing.T) {
	err := ValidateSplits(d("10"), []models.Split{split("ghost", "10")}, []string{"u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestTypeTotals(t *testing.T) {
	var totals TypeTotals
	totals.Add("expense", d("100"))
	totals.Add("Expense", d("50.50"))
	totals.Add("EXPENSE", d("0.25"))
	totals.Add("income", d("20"))
	totals.Add("Income", d("0.75"))
	totals.Add("refund", d("999"))

	assert.True(t, d("150.75").Equal(totals.Expense), "expense = %s", totals.Expense)
	assert.True(t, d("20.75").Equal(totals.Income), "income = %s", totals.Income)
	assert.True(t, d("130").Equal(totals.Net()), "net = %s", totals.Net())
}

func TestTypeTotalsZero(t *testing.T) {
	var totals TypeTotals
	assert.True(t, totals.Net().IsZero())
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "expense", NormalizeType(" EXPENSE "))
	assert.Equal(t, "income", NormalizeType("\tIncome\r\n"))
	assert.True(t, IsExpense("Expense"))
	assert.True(t, IsIncome("INCOME"))
	assert.False(t, IsIncome("expense"))
}
