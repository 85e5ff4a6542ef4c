package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/multiexpenses/internal/models"
	"github.com/mmynk/multiexpenses/internal/storage"
)

// MemberService manages group membership.
type MemberService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewMemberService creates a new MemberService.
func NewMemberService(store storage.Store, logger *slog.Logger) *MemberService {
	return &MemberService{store: store, logger: logger}
}

// List returns the group's current members.
func (s *MemberService) List(ctx context.Context, groupID string) ([]models.Member, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fromStore(s.logger, "ListMembers failed", "group", err, "group_id", groupID)
	}
	return group.Members, nil
}

// IsMember reports whether userID belongs to groupID.
func (s *MemberService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	ok, err := s.store.IsMember(ctx, groupID, userID)
	if err != nil {
		return false, internal(s.logger, "IsMember failed", err, "group_id", groupID, "user_id", userID)
	}
	return ok, nil
}

// Add puts an existing user into the group.
func (s *MemberService) Add(ctx context.Context, groupID, userID string) error {
	userID = strings.TrimSpace(userID)
	s.logger.Info("AddMember request received", "group_id", groupID, "user_id", userID)

	if userID == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("userId is required"))
	}

	err := s.store.InTx(ctx, func(st storage.Store) error {
		user, err := st.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return invalidArgument("user %s does not exist", userID)
		}

		member, err := st.IsMember(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if member {
			return connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("user %s is already a member", userID))
		}

		return st.AddMember(ctx, groupID, userID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Lost a race with a concurrent add.
			return connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("user %s is already a member", userID))
		}
		return fromStore(s.logger, "AddMember failed", "group", err, "group_id", groupID, "user_id", userID)
	}

	s.logger.Info("Member added", "group_id", groupID, "user_id", userID)
	return nil
}

// Remove takes a user out of the group. Their historical splits stay.
func (s *MemberService) Remove(ctx context.Context, groupID, userID string) error {
	s.logger.Info("RemoveMember request received", "group_id", groupID, "user_id", userID)

	if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
		return fromStore(s.logger, "RemoveMember failed", "member", err, "group_id", groupID, "user_id", userID)
	}

	s.logger.Info("Member removed", "group_id", groupID, "user_id", userID)
	return nil
}
