package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/multiexpenses/internal/accounting"
	"github.com/mmynk/multiexpenses/internal/metrics"
	"github.com/mmynk/multiexpenses/internal/middleware"
	"github.com/mmynk/multiexpenses/internal/models"
	"github.com/mmynk/multiexpenses/internal/storage"
)

// TransactionInput carries the client-supplied fields of a create or update.
type TransactionInput struct {
	// GroupID optionally moves the transaction to another group the caller
	// belongs to. Empty means the group from the route.
	GroupID string

	// PaidBy defaults to the caller when empty.
	PaidBy string

	Type        string
	Amount      decimal.Decimal
	Category    string
	Description string

	// CreatedAt is when the money moved (Unix seconds). Zero means now on
	// create and "unchanged" on update.
	CreatedAt int64

	Splits []models.Split
}

// TransactionService manages a group's ledger entries and answers the
// per-member aggregates. Every method assumes the membership gate has
// already run for the route's groupID.
type TransactionService struct {
	store   storage.Store
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(store storage.Store, m *metrics.Metrics, logger *slog.Logger) *TransactionService {
	return &TransactionService{store: store, now: time.Now, metrics: m, logger: logger}
}

// List returns the group's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	txns, err := s.store.ListTransactionsByGroup(ctx, groupID)
	if err != nil {
		return nil, internal(s.logger, "ListTransactions failed", err, "group_id", groupID)
	}
	return txns, nil
}

// Get returns one of the group's transactions.
func (s *TransactionService) Get(ctx context.Context, groupID, txnID string) (*models.Transaction, error) {
	txn, err := s.load(ctx, s.store, groupID, txnID)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Create records a new transaction in the group.
func (s *TransactionService) Create(ctx context.Context, groupID string, in TransactionInput) (*models.Transaction, error) {
	s.logger.Info("CreateTransaction request received",
		"group_id", groupID,
		"user_id", middleware.GetUserID(ctx),
		"splits_count", len(in.Splits),
	)

	txn := &models.Transaction{}
	err := s.store.InTx(ctx, func(st storage.Store) error {
		if err := s.apply(ctx, st, groupID, txn, in); err != nil {
			return err
		}
		return st.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, s.writeError(err, "CreateTransaction failed", groupID)
	}

	s.metrics.TransactionWritten("create")
	s.logger.Info("Transaction created", "group_id", txn.GroupID, "transaction_id", txn.ID)
	return txn, nil
}

// Update replaces every field of an existing transaction, including its splits.
func (s *TransactionService) Update(ctx context.Context, groupID, txnID string, in TransactionInput) (*models.Transaction, error) {
	s.logger.Info("UpdateTransaction request received",
		"group_id", groupID,
		"transaction_id", txnID,
		"splits_count", len(in.Splits),
	)

	var txn *models.Transaction
	err := s.store.InTx(ctx, func(st storage.Store) error {
		existing, err := s.load(ctx, st, groupID, txnID)
		if err != nil {
			return err
		}
		txn = existing
		if err := s.apply(ctx, st, groupID, txn, in); err != nil {
			return err
		}
		return st.ReplaceTransaction(ctx, txn)
	})
	if err != nil {
		return nil, s.writeError(err, "UpdateTransaction failed", groupID, "transaction_id", txnID)
	}

	s.metrics.TransactionWritten("update")
	s.logger.Info("Transaction updated", "group_id", txn.GroupID, "transaction_id", txn.ID)
	return txn, nil
}

// Delete removes a transaction and its splits.
func (s *TransactionService) Delete(ctx context.Context, groupID, txnID string) error {
	s.logger.Info("DeleteTransaction request received", "group_id", groupID, "transaction_id", txnID)

	err := s.store.InTx(ctx, func(st storage.Store) error {
		if _, err := s.load(ctx, st, groupID, txnID); err != nil {
			return err
		}
		return st.DeleteTransaction(ctx, txnID)
	})
	if err != nil {
		return fromStore(s.logger, "DeleteTransaction failed", "transaction", err, "group_id", groupID, "transaction_id", txnID)
	}

	s.metrics.TransactionWritten("delete")
	s.logger.Info("Transaction deleted", "group_id", groupID, "transaction_id", txnID)
	return nil
}

// GetPaidByMember returns what memberID disbursed in the group: expenses
// paid minus income received, rounded to cents. No matching rows yields 0.
func (s *TransactionService) GetPaidByMember(ctx context.Context, groupID, memberID string) (decimal.Decimal, error) {
	totals, err := s.store.PaidTotals(ctx, groupID, memberID)
	if err != nil {
		return decimal.Zero, internal(s.logger, "GetPaidByMember failed", err, "group_id", groupID, "member_id", memberID)
	}
	return totals.Net(), nil
}

// GetIncomeByMember returns the income memberID received in the group,
// without netting against expenses.
func (s *TransactionService) GetIncomeByMember(ctx context.Context, groupID, memberID string) (decimal.Decimal, error) {
	totals, err := s.store.PaidTotals(ctx, groupID, memberID)
	if err != nil {
		return decimal.Zero, internal(s.logger, "GetIncomeByMember failed", err, "group_id", groupID, "member_id", memberID)
	}
	return totals.Income.Round(2), nil
}

// GetExpensesByMember returns memberID's net share of the group's
// transactions: expense splits minus income splits, rounded to cents.
// No matching rows yields 0.
func (s *TransactionService) GetExpensesByMember(ctx context.Context, groupID, memberID string) (decimal.Decimal, error) {
	totals, err := s.store.ShareTotals(ctx, groupID, memberID)
	if err != nil {
		return decimal.Zero, internal(s.logger, "GetExpensesByMember failed", err, "group_id", groupID, "member_id", memberID)
	}
	return totals.Net(), nil
}

// load fetches a transaction and hides it unless it belongs to groupID.
func (s *TransactionService) load(ctx context.Context, st storage.Store, groupID, txnID string) (*models.Transaction, error) {
	txn, err := st.GetTransaction(ctx, txnID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && txn.GroupID != groupID) {
		return nil, notFound("transaction")
	}
	if err != nil {
		return nil, internal(s.logger, "GetTransaction failed", err, "transaction_id", txnID)
	}
	return txn, nil
}

// apply validates in against the store and copies it onto txn.
// It must run inside the same store transaction as the write.
func (s *TransactionService) apply(ctx context.Context, st storage.Store, routeGroupID string, txn *models.Transaction, in TransactionInput) error {
	callerID := middleware.GetUserID(ctx)

	txType := strings.TrimSpace(in.Type)
	if txType == "" {
		return invalidArgument("type is required")
	}
	if in.Amount.IsNegative() {
		return invalidArgument("amount cannot be negative")
	}
	for _, split := range in.Splits {
		if strings.TrimSpace(split.UserID) == "" {
			return invalidArgument("every split needs a userId")
		}
	}

	groupID, err := s.targetGroup(ctx, st, routeGroupID, strings.TrimSpace(in.GroupID), callerID)
	if err != nil {
		return err
	}

	// An update without a payer keeps the stored one; only new transactions
	// (or ones whose payer account is gone) default to the caller.
	paidBy := strings.TrimSpace(in.PaidBy)
	if paidBy == "" {
		paidBy = txn.PaidBy
	}
	if paidBy == "" {
		paidBy = callerID
	}

	// A kept payer in the same group may have left it since; history stays as recorded.
	keptPayer := paidBy == txn.PaidBy && groupID == txn.GroupID
	if !keptPayer {
		payerIsMember, err := st.IsMember(ctx, groupID, paidBy)
		if err != nil {
			return err
		}
		if !payerIsMember {
			return invalidArgument("payer %s is not a member of the group", paidBy)
		}
	}

	memberIDs, err := st.ListMemberIDs(ctx, groupID)
	if err != nil {
		return err
	}
	splits := make([]models.Split, len(in.Splits))
	for i, split := range in.Splits {
		splits[i] = models.Split{UserID: strings.TrimSpace(split.UserID), Amount: split.Amount}
	}
	if err := accounting.ValidateSplits(in.Amount, splits, memberIDs); err != nil {
		return err
	}

	createdAt := in.CreatedAt
	if createdAt == 0 {
		createdAt = txn.CreatedAt
	}
	if createdAt == 0 {
		createdAt = s.now().Unix()
	}

	txn.GroupID = groupID
	txn.PaidBy = paidBy
	txn.Type = txType
	txn.Amount = in.Amount
	txn.Category = strings.TrimSpace(in.Category)
	txn.Description = in.Description
	txn.CreatedAt = createdAt
	txn.Splits = splits
	return nil
}

// targetGroup resolves which group the write lands in. A body group that
// differs from the route must exist and include the caller.
func (s *TransactionService) targetGroup(ctx context.Context, st storage.Store, routeGroupID, bodyGroupID, callerID string) (string, error) {
	if bodyGroupID == "" || bodyGroupID == routeGroupID {
		return routeGroupID, nil
	}
	if _, err := uuid.Parse(bodyGroupID); err != nil {
		return "", invalidArgument("invalid groupId %q", bodyGroupID)
	}

	exists, err := st.GroupExists(ctx, bodyGroupID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", invalidArgument("group %s does not exist", bodyGroupID)
	}

	member, err := st.IsMember(ctx, bodyGroupID, callerID)
	if err != nil {
		return "", err
	}
	if !member {
		return "", connect.NewError(connect.CodePermissionDenied, errors.New("not a member of the target group"))
	}
	return bodyGroupID, nil
}

// writeError converts an error from a create or update unit of work.
func (s *TransactionService) writeError(err error, msg, groupID string, attrs ...any) error {
	var splitErr *accounting.SplitError
	if errors.As(err, &splitErr) {
		s.metrics.SplitRejected(splitErr.Kind.String())
		s.logger.Warn("Splits rejected", "group_id", groupID, "reason", splitErr.Kind.String(), "error", splitErr)
		return connect.NewError(connect.CodeInvalidArgument, splitErr)
	}

	var ce *connect.Error
	if errors.As(err, &ce) {
		s.logger.Warn(msg, append(attrs, "group_id", groupID, "error", ce.Message())...)
		return ce
	}
	if errors.Is(err, storage.ErrNotFound) {
		// A referenced row vanished between validation and insert.
		return invalidArgument("transaction references a missing group or user")
	}
	return fromStore(s.logger, msg, "transaction", err, append(attrs, "group_id", groupID)...)
}
