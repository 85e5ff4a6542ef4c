package accounting

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MemberBalance is one member's standing in a group.
type MemberBalance struct {
	UserID string
	Paid   decimal.Decimal // Net amount the member disbursed
	Owed   decimal.Decimal // Net share of group expenses attributed to the member
	Net    decimal.Decimal // Paid - Owed. Positive = is owed money, negative = owes money
}

// Transfer is a suggested payment that moves a group towards zero balances.
type Transfer struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount decimal.Decimal
}

// ComputeBalances combines payer-view and split-view totals into per-member
// balances. Every ID in members gets an entry, as does any ID that only
// appears in paid or owed (e.g. a former member with historical splits).
// Result is sorted by user ID.
func ComputeBalances(members []string, paid, owed map[string]TypeTotals) []MemberBalance {
	ids := make(map[string]bool, len(members))
	for _, id := range members {
		ids[id] = true
	}
	for id := range paid {
		ids[id] = true
	}
	for id := range owed {
		ids[id] = true
	}

	balances := make([]MemberBalance, 0, len(ids))
	for id := range ids {
		p := paid[id].Net()
		o := owed[id].Net()
		balances = append(balances, MemberBalance{
			UserID: id,
			Paid:   p,
			Owed:   o,
			Net:    p.Sub(o),
		})
	}

	sort.Slice(balances, func(i, j int) bool { return balances[i].UserID < balances[j].UserID })
	return balances
}

// SettlementPlan matches debtors with creditors to clear the balances.
//
// Algorithm: greedy, largest debt against largest credit. Amounts below the
// split tolerance are treated as settled.
func SettlementPlan(balances []MemberBalance) []Transfer {
	type party struct {
		id     string
		amount decimal.Decimal
	}

	var debtors, creditors []*party
	for _, b := range balances {
		switch {
		case b.Net.GreaterThan(SplitTolerance):
			creditors = append(creditors, &party{id: b.UserID, amount: b.Net})
		case b.Net.Neg().GreaterThan(SplitTolerance):
			debtors = append(debtors, &party{id: b.UserID, amount: b.Net.Neg()})
		}
	}

	byAmount := func(ps []*party) func(i, j int) bool {
		return func(i, j int) bool {
			if ps[i].amount.Equal(ps[j].amount) {
				return ps[i].id < ps[j].id
			}
			return ps[i].amount.GreaterThan(ps[j].amount)
		}
	}
	sort.Slice(debtors, byAmount(debtors))
	sort.Slice(creditors, byAmount(creditors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(debtor.amount, creditor.amount)
		if amount.GreaterThan(SplitTolerance) {
			transfers = append(transfers, Transfer{From: debtor.id, To: creditor.id, Amount: amount.Round(2)})
		}

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)

		if !debtor.amount.GreaterThan(SplitTolerance) {
			i++
		}
		if !creditor.amount.GreaterThan(SplitTolerance) {
			j++
		}
	}

	return transfers
}
