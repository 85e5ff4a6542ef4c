package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/multiexpenses/internal/metrics"
	"github.com/mmynk/multiexpenses/internal/middleware"
	"github.com/mmynk/multiexpenses/internal/models"
	"github.com/mmynk/multiexpenses/internal/storage"
)

const (
	// DefaultInvitationTTL is how long a new invitation stays usable.
	DefaultInvitationTTL = 24 * time.Hour

	tokenBytes = 32
)

var errInvalidInvitation = errors.New("invalid, expired, or already used invitation token")

// InvitationService issues, accepts and revokes group invitations.
type InvitationService struct {
	store    storage.Store
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewInvitationService creates a new InvitationService. A non-positive ttl
// falls back to DefaultInvitationTTL.
func NewInvitationService(store storage.Store, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *InvitationService {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	return &InvitationService{
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		newToken: generateToken,
		metrics:  m,
		logger:   logger,
	}
}

// WithClock replaces the time source used for expiry.
func (s *InvitationService) WithClock(now func() time.Time) *InvitationService {
	s.now = now
	return s
}

// generateToken returns 32 random bytes as URL-safe base64 without padding.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ListActive returns the group's invitations that have not expired.
func (s *InvitationService) ListActive(ctx context.Context, groupID string) ([]*models.Invitation, error) {
	invitations, err := s.store.ListActiveInvitations(ctx, groupID, s.now().Unix())
	if err != nil {
		return nil, internal(s.logger, "ListInvitations failed", err, "group_id", groupID)
	}
	return invitations, nil
}

// Create issues a new multi-use invitation for the group.
func (s *InvitationService) Create(ctx context.Context, groupID string) (*models.Invitation, error) {
	s.logger.Info("CreateInvitation request received", "group_id", groupID, "user_id", middleware.GetUserID(ctx))

	token, err := s.newToken()
	if err != nil {
		return nil, internal(s.logger, "CreateInvitation failed", err, "group_id", groupID)
	}

	now := s.now()
	inv := &models.Invitation{
		GroupID:   groupID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl).Unix(),
		CreatedAt: now.Unix(),
	}

	// The unique index on token is the only collision guard; a clash is a server fault.
	err = s.store.CreateInvitation(ctx, inv)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, internal(s.logger, "Invitation token collision", err, "group_id", groupID)
	}
	if err != nil {
		return nil, fromStore(s.logger, "CreateInvitation failed", "group", err, "group_id", groupID)
	}

	s.logger.Info("Invitation created", "group_id", groupID, "invitation_id", inv.ID)
	return inv, nil
}

// Accept adds the caller to the invitation's group. The invitation remains
// usable by others until it expires or is revoked.
func (s *InvitationService) Accept(ctx context.Context, token string) (*models.Invitation, error) {
	userID := middleware.GetUserID(ctx)
	token = strings.TrimSpace(token)
	s.logger.Info("AcceptInvitation request received", "user_id", userID)

	if token == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("token is required"))
	}

	var accepted *models.Invitation
	err := s.store.InTx(ctx, func(st storage.Store) error {
		inv, err := st.GetInvitationByToken(ctx, token)
		if errors.Is(err, storage.ErrNotFound) {
			return connect.NewError(connect.CodeInvalidArgument, errInvalidInvitation)
		}
		if err != nil {
			return err
		}
		if !inv.Active(s.now().Unix()) {
			return connect.NewError(connect.CodeInvalidArgument, errInvalidInvitation)
		}

		if err := st.AddMember(ctx, inv.GroupID, userID); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return connect.NewError(connect.CodeInvalidArgument, errors.New("already a member of this group"))
			}
			return err
		}
		accepted = inv
		return nil
	})
	if err != nil {
		var ce *connect.Error
		if errors.As(err, &ce) {
			s.logger.Warn("AcceptInvitation rejected", "user_id", userID, "error", ce.Message())
			return nil, ce
		}
		return nil, internal(s.logger, "AcceptInvitation failed", err, "user_id", userID)
	}

	s.metrics.InvitationAccepted()
	s.logger.Info("Invitation accepted", "group_id", accepted.GroupID, "user_id", userID)
	return accepted, nil
}

// Revoke deletes the group's invitation with the given token.
func (s *InvitationService) Revoke(ctx context.Context, groupID, token string) error {
	s.logger.Info("RevokeInvitation request received", "group_id", groupID)

	if err := s.store.DeleteInvitation(ctx, groupID, token); err != nil {
		return fromStore(s.logger, "RevokeInvitation failed", "invitation", err, "group_id", groupID)
	}

	s.logger.Info("Invitation revoked", "group_id", groupID)
	return nil
}
