package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/multiexpenses/internal/auth"
	"github.com/mmynk/multiexpenses/internal/models"
	"github.com/mmynk/multiexpenses/internal/storage"
)

// UserService looks up other users, e.g. to add them to a group.
type UserService struct {
	users  storage.UserStore
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users storage.UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// FindByEmail returns the user with the given email, ignoring case.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("email query parameter is required"))
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, internal(s.logger, "FindByEmail failed", err, "email", email)
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}
