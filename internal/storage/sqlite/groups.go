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

// CreateGroup persists a new group and its initial members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if group.CreatedAt == 0 {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	return s.InTx(ctx, func(st storage.Store) error {
		tx := st.(*SQLiteStore)

		_, err := tx.q.ExecContext(ctx,
			"INSERT INTO groups (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
			group.ID, group.Name, group.CreatedAt, group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		for _, m := range group.Members {
			if err := tx.insertMember(ctx, group.ID, m.ID, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetGroup retrieves a group by ID, including its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.q.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.membersOf(ctx, "gm.group_id = ?", groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members[groupID]

	return group, nil
}

// GroupExists reports whether the group exists.
func (s *SQLiteStore) GroupExists(ctx context.Context, groupID string) (bool, error) {
	var exists int
	err := s.q.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check group existence: %w", err)
	}
	return true, nil
}

// ListGroupsForUser retrieves every group the user belongs to.
// Members of all groups are loaded with one extra query.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT g.id, g.name, g.created_at, g.updated_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ?
		 ORDER BY g.created_at, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt, &group.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	if len(groups) == 0 {
		return groups, nil
	}

	members, err := s.membersOf(ctx,
		"gm.group_id IN (SELECT group_id FROM group_members WHERE user_id = ?)", userID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		g.Members = members[g.ID]
	}

	return groups, nil
}

// membersOf loads members keyed by group ID for the groups matching where.
func (s *SQLiteStore) membersOf(ctx context.Context, where string, args ...any) (map[string][]models.Member, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT gm.group_id, u.id, u.email
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE `+where+`
		 ORDER BY u.email`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]models.Member)
	for rows.Next() {
		var groupID string
		var m models.Member
		if err := rows.Scan(&groupID, &m.ID, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members[groupID] = append(members[groupID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// UpdateGroup renames an existing group.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().Unix()
	res, err := s.q.ExecContext(ctx,
		"UPDATE groups SET name = ?, updated_at = ? WHERE id = ?",
		group.Name, group.UpdatedAt, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return expectOneRow(res, "group", group.ID)
}

// DeleteGroup removes a group. Memberships and invitations cascade;
// transactions block the delete.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	return s.InTx(ctx, func(st storage.Store) error {
		tx := st.(*SQLiteStore)

		exists, err := tx.GroupExists(ctx, groupID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}

		count, err := tx.CountTransactionsByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("group %s has %d transactions: %w", groupID, count, storage.ErrConflict)
		}

		if _, err := tx.q.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID); err != nil {
			if kind := constraintKind(err); kind != nil {
				return fmt.Errorf("group %s: %w", groupID, kind)
			}
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return nil
	})
}

// ListMemberIDs returns the IDs of a group's current members.
func (s *SQLiteStore) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member ids: %w", err)
	}
	return ids, nil
}

// IsMember reports whether the user belongs to the group.
func (s *SQLiteStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists int
	err := s.q.QueryRowContext(ctx,
		"SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

// AddMember adds a user to a group and touches the group's updated_at.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID string) error {
	now := time.Now().Unix()
	return s.InTx(ctx, func(st storage.Store) error {
		tx := st.(*SQLiteStore)
		if err := tx.insertMember(ctx, groupID, userID, now); err != nil {
			return err
		}
		return tx.touchGroup(ctx, groupID, now)
	})
}

// RemoveMember removes a user from a group and touches the group's updated_at.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	now := time.Now().Unix()
	return s.InTx(ctx, func(st storage.Store) error {
		tx := st.(*SQLiteStore)
		res, err := tx.q.ExecContext(ctx,
			"DELETE FROM group_members WHERE group_id = ? AND user_id = ?",
			groupID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		if err := expectOneRow(res, "member", userID); err != nil {
			return err
		}
		return tx.touchGroup(ctx, groupID, now)
	})
}

func (s *SQLiteStore) insertMember(ctx context.Context, groupID, userID string, joinedAt int64) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		groupID, userID, joinedAt,
	)
	if err != nil {
		switch constraintKind(err) {
		case storage.ErrAlreadyExists:
			return fmt.Errorf("member %s of group %s: %w", userID, groupID, storage.ErrAlreadyExists)
		case storage.ErrConflict:
			// Either the group or the user row is missing.
			return fmt.Errorf("member %s of group %s: %w", userID, groupID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func (s *SQLiteStore) touchGroup(ctx context.Context, groupID string, now int64) error {
	if _, err := s.q.ExecContext(ctx, "UPDATE groups SET updated_at = ? WHERE id = ?", now, groupID); err != nil {
		return fmt.Errorf("failed to touch group: %w", err)
	}
	return nil
}

// expectOneRow turns a zero-row write into storage.ErrNotFound.
func expectOneRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return nil
}
