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

// CreateInvitation persists a new invitation.
func (s *SQLiteStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if inv.CreatedAt == 0 {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO group_invitations (id, group_id, token, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.GroupID, inv.Token, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		switch constraintKind(err) {
		case storage.ErrAlreadyExists:
			return fmt.Errorf("invitation token: %w", storage.ErrAlreadyExists)
		case storage.ErrConflict:
			return fmt.Errorf("group %s: %w", inv.GroupID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to insert invitation: %w", err)
	}

	return nil
}

// GetInvitationByToken retrieves an invitation by its token.
func (s *SQLiteStore) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, group_id, token, expires_at, created_at, updated_at
		 FROM group_invitations WHERE token = ?`,
		token,
	).Scan(&inv.ID, &inv.GroupID, &inv.Token, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invitation: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// ListActiveInvitations retrieves the group's unexpired invitations, newest first.
func (s *SQLiteStore) ListActiveInvitations(ctx context.Context, groupID string, now int64) ([]*models.Invitation, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, group_id, token, expires_at, created_at, updated_at
		 FROM group_invitations
		 WHERE group_id = ? AND expires_at >= ?
		 ORDER BY created_at DESC, id`,
		groupID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv := &models.Invitation{}
		if err := rows.Scan(&inv.ID, &inv.GroupID, &inv.Token, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invitations: %w", err)
	}

	return invitations, nil
}

// DeleteInvitation revokes the group's invitation with the given token.
func (s *SQLiteStore) DeleteInvitation(ctx context.Context, groupID, token string) error {
	res, err := s.q.ExecContext(ctx,
		"DELETE FROM group_invitations WHERE group_id = ? AND token = ?",
		groupID, token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return expectOneRow(res, "invitation", "for group "+groupID)
}
