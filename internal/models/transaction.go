package models

import "github.com/shopspring/decimal"

// Transaction types recognised by the accounting queries.
// Type is free text; comparisons are case-insensitive.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Transaction is a ledger entry scoped to exactly one group.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// GroupID is the group the transaction belongs to (required).
	GroupID string

	// PaidBy is the user who disbursed the money. Empty when unattributed.
	PaidBy string

	// Type is conventionally "expense" or "income".
	Type string

	// Amount is the non-negative monetary value of the transaction.
	Amount decimal.Decimal

	Category    string
	Description string

	// CreatedAt is supplied by the caller (when the money moved).
	CreatedAt int64

	// UpdatedAt is set by the store on every write.
	UpdatedAt int64

	// Splits decompose Amount among group members. May be empty.
	Splits []Split
}

// Split is the portion of a transaction attributed to one member.
type Split struct {
	ID            string
	TransactionID string
	UserID        string
	Amount        decimal.Decimal
}
