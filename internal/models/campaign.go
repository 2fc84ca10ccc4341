package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign represents a group campaign: a titled, categorized community that
// owns its own posts and chat. Title, description and category are fixed at
// creation; there is no edit path. The creator holds elevated rights (delete
// campaign, add members) and is enrolled as a member at creation.
type Campaign struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:120;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:48" json:"category"`
	CreatorID   uint           `gorm:"not null;index" json:"creator_id"`
	Creator     User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// MembersCount is computed at query time.
	MembersCount int `gorm:"->;-:migration" json:"members_count"`

	Members []CampaignMember `gorm:"foreignKey:CampaignID" json:"members,omitempty"`
}
