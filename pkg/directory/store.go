package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cybercrime-portal/pkg/catalog"
)

var ErrUserNotFound = errors.New("user not found")

// Store reads portal accounts from PostgreSQL.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the users table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// FindByID loads one account.
func (s *Store) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &u, nil
}

// IsActiveOfficer reports whether id belongs to an active law enforcement
// account. Unknown ids are not officers and are not an error.
func (s *Store) IsActiveOfficer(ctx context.Context, id string) (bool, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsOfficer(), nil
}

// CountByRole returns how many active accounts hold role.
func (s *Store) CountByRole(ctx context.Context, role catalog.UserRole) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&User{}).
		Where("role = ? AND is_active = ?", role, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

// NotificationSettings returns a user's push and e-mail preferences. Unknown
// users get the defaults.
func (s *Store) NotificationSettings(ctx context.Context, id string) (catalog.NotificationSettings, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return catalog.DefaultNotificationSettings(), nil
		}
		return catalog.NotificationSettings{}, err
	}
	return u.NotificationPreferences(), nil
}
