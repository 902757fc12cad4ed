// Package service holds the account lifecycle rules: registration,
// credential checks, session login state and administrator gates.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/WinterTin/user-center/internal/cqrs"
	"github.com/WinterTin/user-center/internal/models"
	"github.com/WinterTin/user-center/internal/repository"
	"github.com/WinterTin/user-center/internal/utils"
)

const invalidCredentials = "account name or password is incorrect"

// dummyHash is compared against when the account does not exist so both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, _ := utils.HashPassword("not-a-real-password")
	return h
})

// AccountService owns every account rule. Records leave it only as
// models.UserView.
type AccountService struct {
	store  repository.Store
	policy Policy
	logger *slog.Logger
}

func NewAccountService(store repository.Store, policy Policy, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{store: store, policy: policy, logger: logger}
}

// Register validates and stores a new ordinary account and returns its id.
func (s *AccountService) Register(ctx context.Context, cmd cqrs.RegisterCommand) (int64, error) {
	if utils.IsAnyBlank(cmd.AccountName, cmd.Password, cmd.CheckPassword, cmd.PlanetCode) {
		return 0, newError(KindValidation, "account name, password, confirmation and planet code are required")
	}
	if err := s.policy.check(cmd); err != nil {
		return 0, err
	}
	if cmd.Password != cmd.CheckPassword {
		return 0, newError(KindValidation, "password mismatch")
	}

	_, err := s.store.FindByAccountName(ctx, cmd.AccountName, true)
	switch {
	case err == nil:
		return 0, newError(KindConflict, "account name already registered")
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.ErrorContext(ctx, "account lookup failed", "error", err)
		return 0, fmt.Errorf("failed to check account name: %w", err)
	}

	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &models.User{
		AccountName:  cmd.AccountName,
		PlanetCode:   cmd.PlanetCode,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	id, err := s.store.Insert(ctx, user)
	if err != nil {
		// the unique index wins when a concurrent registration slipped past the check
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return 0, newError(KindConflict, "account name already registered")
		}
		s.logger.ErrorContext(ctx, "account insert failed", "error", err)
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered", "userId", id)
	return id, nil
}

// Login verifies the credentials and records the account in session.
func (s *AccountService) Login(ctx context.Context, cmd cqrs.LoginCommand, session Session) (*models.UserView, error) {
	if utils.IsAnyBlank(cmd.AccountName, cmd.Password) {
		return nil, newError(KindValidation, "account name and password are required")
	}
	if session == nil {
		return nil, newError(KindNullInput, "session is required")
	}
	// no stored hash can match a password bcrypt refuses to hash
	if len(cmd.Password) > MaxPasswordBytes {
		return nil, newError(KindAuthentication, invalidCredentials)
	}

	user, err := s.store.FindByAccountName(ctx, cmd.AccountName, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.CheckPassword(cmd.Password, dummyHash())
			return nil, newError(KindAuthentication, invalidCredentials)
		}
		s.logger.ErrorContext(ctx, "account lookup failed", "error", err)
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return nil, newError(KindAuthentication, invalidCredentials)
	}

	view := models.ToView(user)
	session.Set(UserLoginState, *view)
	if err := session.Save(); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in", "userId", view.ID)
	return view, nil
}

// Logout drops the login state. Logging out twice is not an error.
func (s *AccountService) Logout(ctx context.Context, session Session) (int, error) {
	if session == nil {
		return 0, newError(KindNullInput, "session is required")
	}
	if view, ok := loginState(session); ok {
		s.logger.InfoContext(ctx, "account logged out", "userId", view.ID)
	}
	session.Delete(UserLoginState)
	if err := session.Save(); err != nil {
		return 0, fmt.Errorf("failed to save session: %w", err)
	}
	return 1, nil
}

// CurrentUser re-reads the logged-in account from the store. If the
// account has since been deleted the login state is dropped and the caller
// is treated as anonymous.
func (s *AccountService) CurrentUser(ctx context.Context, session Session) (*models.UserView, error) {
	state, ok := loginState(session)
	if !ok {
		return nil, newError(KindNotAuthenticated, "not logged in")
	}

	user, err := s.store.FindByID(ctx, state.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.ErrorContext(ctx, "account lookup failed", "userId", state.ID, "error", err)
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if err != nil || user.IsDeleted {
		session.Delete(UserLoginState)
		if err := session.Save(); err != nil {
			s.logger.WarnContext(ctx, "failed to clear stale session", "userId", state.ID, "error", err)
		}
		return nil, newError(KindNotAuthenticated, "not logged in")
	}
	return models.ToView(user), nil
}

// ListUsers returns every live account. Administrators only.
func (s *AccountService) ListUsers(ctx context.Context, session Session) ([]models.UserView, error) {
	if !IsAdmin(session) {
		return nil, newError(KindAuthorization, "administrator role required")
	}
	users, err := s.store.ListAll(ctx, true)
	if err != nil {
		s.logger.ErrorContext(ctx, "account listing failed", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return models.ToViews(users), nil
}

// DeleteUser soft-deletes an account and reports how many rows changed.
// Administrators only.
func (s *AccountService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand, session Session) (int64, error) {
	if !IsAdmin(session) {
		return 0, newError(KindAuthorization, "administrator role required")
	}
	if cmd.UserID <= 0 {
		return 0, newError(KindValidation, "id must be positive")
	}
	n, err := s.store.SoftDelete(ctx, cmd.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "account delete failed", "userId", cmd.UserID, "error", err)
		return 0, fmt.Errorf("failed to delete account: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "account deleted", "userId", cmd.UserID)
	}
	return n, nil
}
