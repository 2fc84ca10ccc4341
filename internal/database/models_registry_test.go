package database

import (
	"testing"

	modelspkg "campfire/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesChatMessage(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.ChatMessage); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include ChatMessage")
}

func TestPersistentModels_CoversDomain(t *testing.T) {
	models := PersistentModels()
	require.Len(t, models, 9)

	var hasFollow, hasLike, hasCampaignMember bool
	for _, model := range models {
		switch model.(type) {
		case *modelspkg.Follow:
			hasFollow = true
		case *modelspkg.Like:
			hasLike = true
		case *modelspkg.CampaignMember:
			hasCampaignMember = true
		}
	}
	require.True(t, hasFollow, "PersistentModels should include Follow")
	require.True(t, hasLike, "PersistentModels should include Like")
	require.True(t, hasCampaignMember, "PersistentModels should include CampaignMember")
}
