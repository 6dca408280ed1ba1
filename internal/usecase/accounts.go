package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/cropguard/internal/auth"
	"github.com/example/cropguard/internal/repository"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords so a login failure never reveals which of the two it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrMissingCredentials reports a signup or login form with empty fields.
var ErrMissingCredentials = errors.New("username and password are required")

// UserStore defines the account persistence operations needed here.
type UserStore interface {
	Create(ctx context.Context, user *repository.User) error
	FindByUsername(ctx context.Context, username string) (*repository.User, error)
}

// AccountUseCase handles signup and login.
type AccountUseCase struct {
	users  UserStore
	logger *zap.Logger
}

// NewAccountUseCase constructs a new account use case.
func NewAccountUseCase(users UserStore, logger *zap.Logger) *AccountUseCase {
	return &AccountUseCase{
		users:  users,
		logger: logger.Named("account_usecase"),
	}
}

// SignUp creates an account with a salted password hash. A taken username
// surfaces as repository.ErrUsernameTaken.
func (uc *AccountUseCase) SignUp(ctx context.Context, username, password string) (*repository.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &repository.User{Username: username, PasswordHash: hash}
	if err := uc.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrUsernameTaken) {
			uc.logger.Error("signup failed", zap.String("username", username), zap.Error(err))
		}
		return nil, err
	}

	uc.logger.Info("account created", zap.String("username", username), zap.Uint("user_id", user.ID))
	return user, nil
}

// LogIn authenticates a username/password pair.
func (uc *AccountUseCase) LogIn(ctx context.Context, username, password string) (*repository.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := uc.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
