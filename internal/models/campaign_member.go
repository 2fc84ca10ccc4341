package models

import "time"

// CampaignMember maps users to campaigns. Membership is append-only: members
// are added by the creator (or enrolled as creator) and there is no leave or
// remove operation. The composite key makes duplicate adds impossible.
type CampaignMember struct {
	CampaignID uint      `gorm:"primaryKey;autoIncrement:false" json:"campaign_id"`
	Campaign   *Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
