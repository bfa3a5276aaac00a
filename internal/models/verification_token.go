package models

import "time"

// TokenKind distinguishes the account mutation a verification token guards.
type TokenKind string

const (
	TokenEmailChange    TokenKind = "EMAIL_CHANGE"
	TokenPasswordChange TokenKind = "PASSWORD_CHANGE"
)

// VerificationToken holds a pending account mutation awaiting confirmation.
// At most one token exists per user at any time; issuing a new one replaces
// the previous token regardless of kind. Rows are created and deleted, never
// updated in place.
type VerificationToken struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Kind         TokenKind `gorm:"type:varchar(24);not null" json:"kind"`
	CodeHash     string    `gorm:"not null" json:"-"`
	PendingValue string    `gorm:"not null" json:"-"`
	ExpiresAt    time.Time `gorm:"index" json:"expires_at"`
}
