package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/multiexpenses/internal/models"
	"github.com/mmynk/multiexpenses/internal/storage"
)

const transactionColumns = `id, group_id, paid_by, type, amount, category, description, created_at, updated_at`

// CreateTransaction persists a transaction and its splits atomically.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if txn.CreatedAt == 0 {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now

	return s.InTx(ctx, func(st storage.Store) error {
		tx := st.(*SQLiteStore)

		_, err := tx.q.ExecContext(ctx,
			`INSERT INTO transactions (`+transactionColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.ID, txn.GroupID, nullString(txn.PaidBy), txn.Type, txn.Amount,
			txn.Category, nullString(txn.Description), txn.CreatedAt, txn.UpdatedAt,
		)
		if err != nil {
			if constraintKind(err) == storage.ErrConflict {
				return fmt.Errorf("transaction references missing group or payer: %w", storage.ErrNotFound)
			}
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		return tx.insertSplits(ctx, txn)
	})
}

// GetTransaction retrieves a transaction by ID, including its splits.
func (s *SQLiteStore) GetTransaction(ctx context.Context, txnID string) (*models.Transaction, error) {
	txn, err := scanTransaction(s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`,
		txnID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", txnID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	splits, err := s.splitsWhere(ctx, "s.transaction_id = ?", txnID)
	if err != nil {
		return nil, err
	}
	txn.Splits = splits[txn.ID]

	return txn, nil
}

// ListTransactionsByGroup retrieves all transactions of a group, newest first.
func (s *SQLiteStore) ListTransactionsByGroup(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	if len(txns) == 0 {
		return txns, nil
	}

	splits, err := s.splitsWhere(ctx, "t.group_id = ?", groupID)
	if err != nil {
		return nil, err
	}
	for _, txn := range txns {
		txn.Splits = splits[txn.ID]
	}

	return txns, nil
}

// CountTransactionsByGroup counts the transactions referencing a group.
func (s *SQLiteStore) CountTransactionsByGroup(ctx context.Context, groupID string) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE group_id = ?", groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// ReplaceTransaction overwrites a transaction and replaces its splits.
func (s *SQLiteStore) ReplaceTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.UpdatedAt = time.Now().Unix()

	return s.InTx(ctx, func(st storage.Store) error {
		tx := st.(*SQLiteStore)

		res, err := tx.q.ExecContext(ctx,
			`UPDATE transactions
			 SET group_id = ?, paid_by = ?, type = ?, amount = ?, category = ?,
			     description = ?, created_at = ?, updated_at = ?
			 WHERE id = ?`,
			txn.GroupID, nullString(txn.PaidBy), txn.Type, txn.Amount, txn.Category,
			nullString(txn.Description), txn.CreatedAt, txn.UpdatedAt, txn.ID,
		)
		if err != nil {
			if constraintKind(err) == storage.ErrConflict {
				return fmt.Errorf("transaction references missing group or payer: %w", storage.ErrNotFound)
			}
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		if err := expectOneRow(res, "transaction", txn.ID); err != nil {
			return err
		}

		if _, err := tx.q.ExecContext(ctx, "DELETE FROM transaction_splits WHERE transaction_id = ?", txn.ID); err != nil {
			return fmt.Errorf("failed to delete splits: %w", err)
		}

		return tx.insertSplits(ctx, txn)
	})
}

// DeleteTransaction removes a transaction; splits are removed by cascade.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, txnID string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", txnID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectOneRow(res, "transaction", txnID)
}

func (s *SQLiteStore) insertSplits(ctx context.Context, txn *models.Transaction) error {
	for i := range txn.Splits {
		split := &txn.Splits[i]
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		split.TransactionID = txn.ID

		_, err := s.q.ExecContext(ctx,
			"INSERT INTO transaction_splits (id, transaction_id, user_id, amount) VALUES (?, ?, ?, ?)",
			split.ID, split.TransactionID, split.UserID, split.Amount,
		)
		if err != nil {
			if constraintKind(err) == storage.ErrConflict {
				return fmt.Errorf("split user %s: %w", split.UserID, storage.ErrNotFound)
			}
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// splitsWhere loads splits keyed by transaction ID.
func (s *SQLiteStore) splitsWhere(ctx context.Context, where string, args ...any) (map[string][]models.Split, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT s.id, s.transaction_id, s.user_id, s.amount
		 FROM transaction_splits s
		 JOIN transactions t ON t.id = s.transaction_id
		 WHERE `+where+`
		 ORDER BY s.user_id, s.id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	splits := make(map[string][]models.Split)
	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.ID, &split.TransactionID, &split.UserID, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits[split.TransactionID] = append(splits[split.TransactionID], split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return splits, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var paidBy, description sql.NullString
	if err := row.Scan(&txn.ID, &txn.GroupID, &paidBy, &txn.Type, &txn.Amount,
		&txn.Category, &description, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
		return nil, err
	}
	txn.PaidBy = paidBy.String
	txn.Description = description.String
	return txn, nil
}
