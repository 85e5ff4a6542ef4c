// Package accounting holds the shared-expense arithmetic: split validation,
// netting of per-type totals and group balances with a settlement plan.
package accounting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/multiexpenses/internal/models"
)

// SplitTolerance is the largest allowed gap between the sum of a
// transaction's splits and its amount.
var SplitTolerance = decimal.New(1, -2)

// SplitErrorKind classifies why a set of splits was rejected.
type SplitErrorKind int

const (
	// NonMemberSplit means a split references a user outside the group.
	NonMemberSplit SplitErrorKind = iota + 1
	// SplitSumMismatch means the splits do not add up to the transaction amount.
	SplitSumMismatch
	// NegativeSplit means at least one split amount is below zero.
	NegativeSplit
)

func (k SplitErrorKind) String() string {
	switch k {
	case NonMemberSplit:
		return "non_member"
	case SplitSumMismatch:
		return "sum_mismatch"
	case NegativeSplit:
		return "negative"
	default:
		return "unknown"
	}
}

// SplitError describes a rejected set of splits.
type SplitError struct {
	Kind SplitErrorKind

	// UserIDs lists the offending users for NonMemberSplit and NegativeSplit.
	UserIDs []string

	// Sum and Amount are set for SplitSumMismatch.
	Sum    decimal.Decimal
	Amount decimal.Decimal
}

func (e *SplitError) Error() string {
	switch e.Kind {
	case NonMemberSplit:
		return fmt.Sprintf("split users are not members of the group: %s", strings.Join(e.UserIDs, ", "))
	case SplitSumMismatch:
		return fmt.Sprintf("sum of splits (%s) must equal transaction amount (%s)", e.Sum.StringFixed(2), e.Amount.StringFixed(2))
	case NegativeSplit:
		return fmt.Sprintf("split amounts cannot be negative (users: %s)", strings.Join(e.UserIDs, ", "))
	default:
		return "invalid splits"
	}
}

// ValidateSplits checks splits against the transaction amount and the
// group's current member IDs. Checks run in a fixed order: membership,
// then sum, then sign. An empty split list is always valid.
func ValidateSplits(amount decimal.Decimal, splits []models.Split, memberIDs []string) error {
	if len(splits) == 0 {
		return nil
	}

	members := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}

	var outsiders []string
	seen := make(map[string]bool, len(splits))
	for _, s := range splits {
		if seen[s.UserID] {
			continue
		}
		seen[s.UserID] = true
		if !members[s.UserID] {
			outsiders = append(outsiders, s.UserID)
		}
	}
	if len(outsiders) > 0 {
		return &SplitError{Kind: NonMemberSplit, UserIDs: outsiders}
	}

	sum := SumSplits(splits)
	if sum.Sub(amount).Abs().GreaterThan(SplitTolerance) {
		return &SplitError{Kind: SplitSumMismatch, Sum: sum, Amount: amount}
	}

	var negative []string
	for _, s := range splits {
		if s.Amount.IsNegative() {
			negative = append(negative, s.UserID)
		}
	}
	if len(negative) > 0 {
		return &SplitError{Kind: NegativeSplit, UserIDs: negative}
	}

	return nil
}

// SumSplits adds up the split amounts.
func SumSplits(splits []models.Split) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s.Amount)
	}
	return sum
}
