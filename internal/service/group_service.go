package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/multiexpenses/internal/accounting"
	"github.com/mmynk/multiexpenses/internal/middleware"
	"github.com/mmynk/multiexpenses/internal/models"
	"github.com/mmynk/multiexpenses/internal/storage"
)

// GroupBalances is the "who owes whom" view of a group.
type GroupBalances struct {
	GroupID   string
	Balances  []accounting.MemberBalance
	Transfers []accounting.Transfer
}

// GroupService manages groups. Every method except List and Create assumes
// the membership gate has already run for groupID.
type GroupService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, logger: logger}
}

// List returns the groups the caller belongs to.
func (s *GroupService) List(ctx context.Context) ([]*models.Group, error) {
	userID := middleware.GetUserID(ctx)
	s.logger.Info("ListGroups request received", "user_id", userID)

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, internal(s.logger, "ListGroups failed", err, "user_id", userID)
	}
	return groups, nil
}

// Get returns a group with its members.
func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fromStore(s.logger, "GetGroup failed", "group", err, "group_id", groupID)
	}
	return group, nil
}

// Create creates a group whose sole initial member is the caller.
func (s *GroupService) Create(ctx context.Context, name string) (*models.Group, error) {
	userID := middleware.GetUserID(ctx)
	name = strings.TrimSpace(name)
	s.logger.Info("CreateGroup request received", "user_id", userID, "name", name)

	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group name is required"))
	}

	group := &models.Group{
		Name:    name,
		Members: []models.Member{{ID: userID, Email: middleware.GetEmail(ctx)}},
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The caller's account no longer exists.
			return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("unknown user"))
		}
		return nil, internal(s.logger, "CreateGroup failed", err, "user_id", userID)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return s.Get(ctx, group.ID)
}

// Update renames a group.
func (s *GroupService) Update(ctx context.Context, groupID, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	s.logger.Info("UpdateGroup request received", "group_id", groupID, "name", name)

	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group name is required"))
	}

	if err := s.store.UpdateGroup(ctx, &models.Group{ID: groupID, Name: name}); err != nil {
		return nil, fromStore(s.logger, "UpdateGroup failed", "group", err, "group_id", groupID)
	}

	s.logger.Info("Group updated", "group_id", groupID)
	return s.Get(ctx, groupID)
}

// Delete removes a group together with its memberships and invitations.
// A group that still has transactions cannot be deleted.
func (s *GroupService) Delete(ctx context.Context, groupID string) error {
	s.logger.Info("DeleteGroup request received", "group_id", groupID)

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			s.logger.Warn("DeleteGroup blocked by transactions", "group_id", groupID)
			return connect.NewError(connect.CodeFailedPrecondition,
				errors.New("group has transactions; delete them first"))
		}
		return fromStore(s.logger, "DeleteGroup failed", "group", err, "group_id", groupID)
	}

	s.logger.Info("Group deleted", "group_id", groupID)
	return nil
}

// Balances computes every member's paid, owed and net position, plus a
// suggested set of transfers that settles the group.
func (s *GroupService) Balances(ctx context.Context, groupID string) (*GroupBalances, error) {
	memberIDs, err := s.store.ListMemberIDs(ctx, groupID)
	if err != nil {
		return nil, internal(s.logger, "Balances failed", err, "group_id", groupID)
	}
	paid, err := s.store.PaidTotalsByMember(ctx, groupID)
	if err != nil {
		return nil, internal(s.logger, "Balances failed", err, "group_id", groupID)
	}
	owed, err := s.store.ShareTotalsByMember(ctx, groupID)
	if err != nil {
		return nil, internal(s.logger, "Balances failed", err, "group_id", groupID)
	}

	balances := accounting.ComputeBalances(memberIDs, paid, owed)
	return &GroupBalances{
		GroupID:   groupID,
		Balances:  balances,
		Transfers: accounting.SettlementPlan(balances),
	}, nil
}
