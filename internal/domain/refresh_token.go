package domain

import "time"

// RefreshToken is one link in a user's rotation chain. Only the peppered
// SHA-256 of the opaque token is kept; rotating revokes the row and points
// ReplacedByID at its successor.
type RefreshToken struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	UserID       int64      `json:"user_id" gorm:"index;not null"`
	TokenHash    string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt    *time.Time `json:"revoked_at" gorm:"index"`
	ReplacedByID *int64     `json:"replaced_by_id" gorm:"index"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// IsExpired treats the expiry instant itself as expired.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
