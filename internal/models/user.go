package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "free"
	TierStandard SubscriptionTier = "standard"
	TierPro      SubscriptionTier = "pro"
)

// Returns true if the tier is one of the known subscription levels
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierStandard, TierPro:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	Email        string           `gorm:"uniqueIndex;not null" json:"email"`
	Username     string           `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string           `gorm:"not null" json:"-"`
	Tier         SubscriptionTier `gorm:"default:'free'" json:"tier"`
	RiotID       string           `json:"riot_id,omitempty"`
	Region       string           `json:"region,omitempty"`
	IsActive     bool             `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
	LastLoginAt  *time.Time       `json:"last_login_at,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}
