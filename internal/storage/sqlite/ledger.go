package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/multiexpenses/internal/accounting"
)

// Type matching mirrors accounting.NormalizeType (ASCII whitespace trimmed,
// case folded); only "expense" and "income" rows count.
const (
	txnType   = "LOWER(TRIM(type, char(32, 9, 10, 11, 12, 13)))"
	splitType = "LOWER(TRIM(t.type, char(32, 9, 10, 11, 12, 13)))"
)

// PaidTotals sums the amounts of transactions paid by memberID, per type.
func (s *SQLiteStore) PaidTotals(ctx context.Context, groupID, memberID string) (accounting.TypeTotals, error) {
	totals, err := s.typeTotals(ctx,
		`SELECT paid_by, ` + txnType + `, TOTAL(amount)
		 FROM transactions
		 WHERE group_id = ? AND paid_by = ? AND ` + txnType + ` IN ('expense', 'income')
		 GROUP BY paid_by, ` + txnType,
		groupID, memberID,
	)
	if err != nil {
		return accounting.TypeTotals{}, err
	}
	return totals[memberID], nil
}

// ShareTotals sums split amounts attributed to memberID, per parent transaction type.
func (s *SQLiteStore) ShareTotals(ctx context.Context, groupID, memberID string) (accounting.TypeTotals, error) {
	totals, err := s.typeTotals(ctx,
		`SELECT s.user_id, ` + splitType + `, TOTAL(s.amount)
		 FROM transaction_splits s
		 JOIN transactions t ON t.id = s.transaction_id
		 WHERE t.group_id = ? AND s.user_id = ? AND ` + splitType + ` IN ('expense', 'income')
		 GROUP BY s.user_id, ` + splitType,
		groupID, memberID,
	)
	if err != nil {
		return accounting.TypeTotals{}, err
	}
	return totals[memberID], nil
}

// PaidTotalsByMember returns per-type paid totals for every payer in the group.
func (s *SQLiteStore) PaidTotalsByMember(ctx context.Context, groupID string) (map[string]accounting.TypeTotals, error) {
	return s.typeTotals(ctx,
		`SELECT paid_by, ` + txnType + `, TOTAL(amount)
		 FROM transactions
		 WHERE group_id = ? AND paid_by IS NOT NULL AND ` + txnType + ` IN ('expense', 'income')
		 GROUP BY paid_by, ` + txnType,
		groupID,
	)
}

// ShareTotalsByMember returns per-type share totals for every split user in the group.
func (s *SQLiteStore) ShareTotalsByMember(ctx context.Context, groupID string) (map[string]accounting.TypeTotals, error) {
	return s.typeTotals(ctx,
		`SELECT s.user_id, ` + splitType + `, TOTAL(s.amount)
		 FROM transaction_splits s
		 JOIN transactions t ON t.id = s.transaction_id
		 WHERE t.group_id = ? AND ` + splitType + ` IN ('expense', 'income')
		 GROUP BY s.user_id, ` + splitType,
		groupID,
	)
}

// typeTotals runs a (user, type, sum) query and folds it into TypeTotals per user.
func (s *SQLiteStore) typeTotals(ctx context.Context, query string, args ...any) (map[string]accounting.TypeTotals, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]accounting.TypeTotals)
	for rows.Next() {
		var userID, txType string
		var sum float64
		if err := rows.Scan(&userID, &txType, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan ledger sum: %w", err)
		}
		t := totals[userID]
		t.Add(txType, decimal.NewFromFloat(sum))
		totals[userID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger sums: %w", err)
	}

	return totals, nil
}
