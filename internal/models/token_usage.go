package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tracks one user's token consumption for one calendar month.
// Rows are created lazily on the first chat request of the month and are
// never deleted, so past months double as usage history. The composite
// unique index guarantees a single row per (user, year, month) even when
// concurrent first-of-the-month requests race to create it.
type TokenUsage struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_period" json:"user_id"`
	Year   int       `gorm:"not null;uniqueIndex:uq_user_period" json:"year"`
	Month  int       `gorm:"not null;uniqueIndex:uq_user_period" json:"month"` // 1-12

	// Cumulative tokens consumed this month, taken from the provider's
	// reported usage. Never decremented.
	TokensUsed int `gorm:"not null;default:0" json:"tokens_used"`

	// Completed requests this month, for analytics
	RequestCount int `gorm:"not null;default:0" json:"request_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TokenUsage) TableName() string {
	return "token_usage"
}

// Period string in "YYYY-MM" form
func (u *TokenUsage) Period() string {
	return fmt.Sprintf("%d-%02d", u.Year, u.Month)
}
