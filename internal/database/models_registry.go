package database

import "campfire/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Campaign{},
		&models.CampaignMember{},
		&models.ChatMessage{},
		&models.Attachment{},
	}
}
