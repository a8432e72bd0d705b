package models

import "time"

type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedByID uint      `gorm:"not null;index" json:"created_by_id"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	CreatedBy User   `gorm:"foreignKey:CreatedByID" json:"-"`
	Members   []User `gorm:"many2many:group_members" json:"members,omitempty"`
}

type GroupInvitation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	GroupID       uint       `gorm:"not null;index:idx_group_invite,unique" json:"group_id"`
	InvitedUserID uint       `gorm:"not null;index:idx_group_invite,unique;index" json:"invited_user_id"`
	InvitedByID   uint       `gorm:"not null" json:"invited_by_id"`
	Status        string     `gorm:"size:10;not null;default:'pending';index" json:"status"`
	ExpiresAt     *time.Time `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Group       Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	InvitedUser User  `gorm:"foreignKey:InvitedUserID" json:"-"`
	InvitedBy   User  `gorm:"foreignKey:InvitedByID" json:"-"`
}

// IsExpired reports whether the invitation has passed its expiry, if set.
func (i *GroupInvitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}
