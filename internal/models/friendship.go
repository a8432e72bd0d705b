package models

import "time"

// FriendRequest is a pending invitation from one user to another. Accepting
// it creates a Friendship with canonical user ordering.
type FriendRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FromUserID uint      `gorm:"not null;index:idx_friend_req_pair,unique" json:"from_user_id"`
	ToUserID   uint      `gorm:"not null;index:idx_friend_req_pair,unique;index" json:"to_user_id"`
	Status     string    `gorm:"size:10;not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	FromUser User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

// Friendship links two users. Rows are always stored with User1ID < User2ID.
type Friendship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	User1ID   uint      `gorm:"not null;index:idx_friendship_pair,unique" json:"user1_id"`
	User2ID   uint      `gorm:"not null;index:idx_friendship_pair,unique;index" json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`

	User1 User `gorm:"foreignKey:User1ID" json:"-"`
	User2 User `gorm:"foreignKey:User2ID" json:"-"`
}

// CanonicalPair orders two user ids so the lower id comes first. The ordering
// fixes the sign convention for balances and the storage form of friendships.
func CanonicalPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}
