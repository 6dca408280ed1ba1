package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrUsernameTaken reports a signup attempt with an existing username.
var ErrUsernameTaken = errors.New("username already exists")

// ErrUserNotFound reports a lookup for an unknown user.
var ErrUserNotFound = errors.New("user not found")

// UserRepository provides persistence APIs for accounts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository instance.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account. A username collision, whether detected by
// the pre-check or by the unique index during insert, maps to
// ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	var existing User
	err := r.db.WithContext(ctx).First(&existing, "username = ?", user.Username).Error
	switch {
	case err == nil:
		return ErrUsernameTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// FindByUsername retrieves an account by its unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByID retrieves an account by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
