package directory

import (
	"time"

	"gorm.io/gorm"

	"cybercrime-portal/pkg/catalog"
)

// User is a portal account as stored in the users table. Accounts are
// provisioned outside the case services; this package only reads them.
type User struct {
	ID          string           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email       string           `gorm:"uniqueIndex;not null" json:"email"`
	Name        string           `gorm:"not null" json:"name"`
	Role        catalog.UserRole `gorm:"type:varchar(32);default:'citizen';index" json:"role"`
	Department  string           `json:"department,omitempty"`
	BadgeNumber string           `gorm:"index" json:"badge_number,omitempty"`
	Phone       string           `json:"phone,omitempty"`
	IsActive    bool             `gorm:"default:true" json:"is_active"`

	Notifications *catalog.NotificationSettings `gorm:"serializer:json;type:jsonb" json:"notifications,omitempty"`

	LastLogin   *time.Time       `json:"last_login,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// IsOfficer reports whether the account can be assigned to cases.
func (u User) IsOfficer() bool {
	return u.IsActive && u.Role == catalog.RoleLawEnforcement
}

// NotificationPreferences returns the stored settings, or the defaults for
// accounts that never saved any.
func (u User) NotificationPreferences() catalog.NotificationSettings {
	if u.Notifications == nil {
		return catalog.DefaultNotificationSettings()
	}
	return *u.Notifications
}
