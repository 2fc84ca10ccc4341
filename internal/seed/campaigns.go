package seed

import (
	"fmt"

	"campfire/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInCampaign is a permanent starter campaign.
type BuiltInCampaign struct {
	Title       string
	Category    string
	Description string
}

// BuiltInCampaigns defines the starter campaigns every fresh database gets.
var BuiltInCampaigns = []BuiltInCampaign{
	{Title: "The Commons", Category: "general", Description: "Core discussion for Campfire."},
	{Title: "The Herald", Category: "news", Description: "Announcements and platform updates."},
	{Title: "The Silver Screen", Category: "movies", Description: "Film discussion and recommendations."},
	{Title: "The Small Screen", Category: "television", Description: "TV shows and series conversation."},
	{Title: "The Archive", Category: "books", Description: "Books, writing, and reading lists."},
	{Title: "The Sound Chamber", Category: "music", Description: "Music discovery and discussion."},
	{Title: "The Game Room", Category: "gaming", Description: "Gaming across all platforms."},
	{Title: "The Forge", Category: "development", Description: "Software development discussions."},
	{Title: "The Terminal", Category: "linux", Description: "Linux distros, tooling, and workflows."},
	{Title: "The Oracle", Category: "ai", Description: "AI trends, tools, and research."},
	{Title: "The Training Grounds", Category: "fitness", Description: "Fitness and training programs."},
	{Title: "The Hearth", Category: "food", Description: "Food, cooking, and nutrition."},
}

// BuiltIn seeds the starter campaigns, owned by the given creator, and
// returns them. Safe to run repeatedly: existing campaigns are matched by
// title and left untouched.
func BuiltIn(db *gorm.DB, creatorID uint) ([]models.Campaign, error) {
	campaigns := make([]models.Campaign, 0, len(BuiltInCampaigns))

	for _, item := range BuiltInCampaigns {
		var campaign models.Campaign
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where(models.Campaign{Title: item.Title}).
				Attrs(models.Campaign{
					Description: item.Description,
					Category:    item.Category,
					CreatorID:   creatorID,
				}).
				FirstOrCreate(&campaign).Error; err != nil {
				return err
			}

			// the creator is always a member of their own campaign
			member := models.CampaignMember{
				CampaignID: campaign.ID,
				UserID:     campaign.CreatorID,
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
		})
		if err != nil {
			return nil, fmt.Errorf("seed built-in campaign %q: %w", item.Title, err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, nil
}
