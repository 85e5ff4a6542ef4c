// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/multiexpenses/internal/accounting"
	"github.com/mmynk/multiexpenses/internal/models"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a uniqueness constraint rejects a write
	// (duplicate email, duplicate membership, token collision).
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when a restrict rule blocks a delete.
	ErrConflict = errors.New("conflict")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail looks up a user by email, ignoring case.
	// Returns nil, nil when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil, nil when no user matches.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup inserts the group together with its initial Members.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns the group with its members, or ErrNotFound.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GroupExists reports whether a group with the ID exists.
	GroupExists(ctx context.Context, groupID string) (bool, error)

	// ListGroupsForUser returns the groups userID belongs to, with members.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// UpdateGroup renames a group. Returns ErrNotFound if it does not exist.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group, its memberships and invitations.
	// Returns ErrConflict if transactions still reference it, ErrNotFound if absent.
	DeleteGroup(ctx context.Context, groupID string) error

	// ListMemberIDs returns the IDs of the group's current members.
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)

	// IsMember reports whether userID is a member of groupID.
	IsMember(ctx context.Context, groupID, userID string) (bool, error)

	// AddMember inserts a membership row. Returns ErrAlreadyExists on duplicates.
	AddMember(ctx context.Context, groupID, userID string) error

	// RemoveMember deletes a membership row. Returns ErrNotFound if absent.
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// InvitationStore persists group invitations.
type InvitationStore interface {
	// CreateInvitation inserts an invitation. Returns ErrAlreadyExists on token collision.
	CreateInvitation(ctx context.Context, inv *models.Invitation) error

	// GetInvitationByToken returns the invitation or ErrNotFound.
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)

	// ListActiveInvitations returns the group's invitations that expire at or after now.
	ListActiveInvitations(ctx context.Context, groupID string, now int64) ([]*models.Invitation, error)

	// DeleteInvitation removes the group's invitation with token. Returns ErrNotFound if absent.
	DeleteInvitation(ctx context.Context, groupID, token string) error
}

// TransactionStore persists transactions and their splits.
type TransactionStore interface {
	// CreateTransaction inserts the transaction and its splits.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error

	// GetTransaction returns the transaction with splits, or ErrNotFound.
	GetTransaction(ctx context.Context, txnID string) (*models.Transaction, error)

	// ListTransactionsByGroup returns the group's transactions with splits,
	// newest first.
	ListTransactionsByGroup(ctx context.Context, groupID string) ([]*models.Transaction, error)

	// CountTransactionsByGroup returns how many transactions reference the group.
	CountTransactionsByGroup(ctx context.Context, groupID string) (int, error)

	// ReplaceTransaction overwrites every field and replaces all splits.
	// Returns ErrNotFound if the transaction does not exist.
	ReplaceTransaction(ctx context.Context, txn *models.Transaction) error

	// DeleteTransaction removes the transaction; its splits cascade.
	DeleteTransaction(ctx context.Context, txnID string) error
}

// LedgerStore answers the read-only accounting aggregates.
// None of these methods check that the group or member exists; no matching
// rows yields zero totals.
type LedgerStore interface {
	// PaidTotals sums transaction amounts paid by memberID in the group, per type.
	PaidTotals(ctx context.Context, groupID, memberID string) (accounting.TypeTotals, error)

	// ShareTotals sums split amounts attributed to memberID in the group, per parent type.
	ShareTotals(ctx context.Context, groupID, memberID string) (accounting.TypeTotals, error)

	// PaidTotalsByMember returns PaidTotals for every payer in the group.
	PaidTotalsByMember(ctx context.Context, groupID string) (map[string]accounting.TypeTotals, error)

	// ShareTotalsByMember returns ShareTotals for every split user in the group.
	ShareTotalsByMember(ctx context.Context, groupID string) (map[string]accounting.TypeTotals, error)
}

// Store combines every repository behind one handle.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	InvitationStore
	TransactionStore
	LedgerStore

	// InTx runs fn inside a single database transaction. The Store passed to
	// fn is bound to that transaction; fn's error rolls everything back.
	// Nested calls reuse the outer transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
