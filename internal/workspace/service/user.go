package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/pkg/cryptox"
	"github.com/teamspaceapp/teamspace/pkg/idx"
	"github.com/teamspaceapp/teamspace/pkg/slogx"
)

type UserService struct {
	Store store.Store
}

// Register creates a user plus their personal workspace and owner
// membership, all in one transaction.
func (s *UserService) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user, err := domain.NewUser(idx.New().String(), name, email, hash, now)
	if err != nil {
		return domain.User{}, err
	}

	personal := domain.NewPersonalWorkspace(idx.New().String(), now)
	owner := domain.NewOwner(idx.New().String(), personal, user.ID, now)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		if err := tx.Workspaces().CreateWorkspace(ctx, personal); err != nil {
			return err
		}
		return tx.Members().CreateMember(ctx, owner)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		log.Error("failed to register user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("personal_workspace_id", personal.ID),
	)
	return user, nil
}

// Authenticate verifies email/password. A missing user and a bad password
// are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
