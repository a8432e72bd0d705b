package models

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	GoogleID     *string   `gorm:"uniqueIndex;size:255" json:"-"` // nil for password signups (avoids '' collisions on the unique index)
	ProfileCode  string    `gorm:"uniqueIndex;size:20" json:"profile_code"`
	AvatarURL    string    `gorm:"size:512" json:"avatar_url"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const profileCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateProfileCode builds a shareable code like "JOHNDOE@7K2Q" from the
// username plus a random suffix. Uniqueness is enforced by the DB index;
// callers retry on conflict.
func GenerateProfileCode(username string) string {
	var clean strings.Builder
	for _, r := range username {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			clean.WriteRune(r)
		}
	}
	prefix := strings.ToUpper(clean.String())
	if len(prefix) > 7 {
		prefix = prefix[:7]
	}
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = profileCodeAlphabet[rand.Intn(len(profileCodeAlphabet))]
	}
	return fmt.Sprintf("%s@%s", prefix, suffix)
}
