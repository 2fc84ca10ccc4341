package validation

import (
	"fmt"
	"strings"
)

const (
	maxCampaignTitleLength       = 120
	maxCampaignDescriptionLength = 2000
	maxCampaignCategoryLength    = 48
)

// ValidateCampaignTitle validates a campaign title. Titles are immutable
// after creation so this only runs on the create path.
func ValidateCampaignTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return fmt.Errorf("title is required")
	}
	if len(trimmed) > maxCampaignTitleLength {
		return fmt.Errorf("title must be at most %d characters", maxCampaignTitleLength)
	}
	return nil
}

// ValidateCampaignDescription validates a campaign description.
func ValidateCampaignDescription(description string) error {
	if len(description) > maxCampaignDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", maxCampaignDescriptionLength)
	}
	return nil
}

// ValidateCampaignCategory validates a campaign category label.
func ValidateCampaignCategory(category string) error {
	if len(category) > maxCampaignCategoryLength {
		return fmt.Errorf("category must be at most %d characters", maxCampaignCategoryLength)
	}
	return nil
}
