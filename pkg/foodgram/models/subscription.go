package models

import "time"

// Subscription represents a follow relationship: UserID follows AuthorID.
// A (user, author) pair exists at most once; self-subscription is rejected
// at the handler level.
type Subscription struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_subscription_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_subscription_user_author" json:"author_id"`

	// Relationships
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
