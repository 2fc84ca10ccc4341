package repository

import (
	"context"
	"testing"

	"campfire/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Campaign{},
		&models.CampaignMember{},
		&models.ChatMessage{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func TestChatRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	user1 := &models.User{Username: "user1", Email: "u1@e.com", Password: "x"}
	user2 := &models.User{Username: "user2", Email: "u2@e.com", Password: "x"}
	db.Create(user1)
	db.Create(user2)

	campaign := &models.Campaign{Title: "Test Campaign", CreatorID: user1.ID}
	db.Create(campaign)

	t.Run("CreateMessage", func(t *testing.T) {
		msg := &models.ChatMessage{
			CampaignID: campaign.ID,
			SenderID:   user1.ID,
			Body:       "Hello",
		}
		err := repo.CreateMessage(ctx, msg)
		assert.NoError(t, err)
		assert.NotZero(t, msg.ID)
	})

	t.Run("GetMessages returns chronological order", func(t *testing.T) {
		other := &models.Campaign{Title: "Other Campaign", CreatorID: user1.ID}
		db.Create(other)

		for _, body := range []string{"first", "second", "third"} {
			err := repo.CreateMessage(ctx, &models.ChatMessage{
				CampaignID: other.ID,
				SenderID:   user2.ID,
				Body:       body,
			})
			assert.NoError(t, err)
		}

		msgs, err := repo.GetMessages(ctx, other.ID, 10, 0)
		assert.NoError(t, err)
		assert.Len(t, msgs, 3)
		assert.Equal(t, "first", msgs[0].Body)
		assert.Equal(t, "third", msgs[2].Body)
		assert.Equal(t, "user2", msgs[0].Sender.Username)
	})

	t.Run("GetMessages limit keeps latest", func(t *testing.T) {
		limited := &models.Campaign{Title: "Limited Campaign", CreatorID: user1.ID}
		db.Create(limited)

		for _, body := range []string{"one", "two", "three"} {
			err := repo.CreateMessage(ctx, &models.ChatMessage{
				CampaignID: limited.ID,
				SenderID:   user1.ID,
				Body:       body,
			})
			assert.NoError(t, err)
		}

		msgs, err := repo.GetMessages(ctx, limited.ID, 2, 0)
		assert.NoError(t, err)
		assert.Len(t, msgs, 2)
		// window holds the two latest messages, oldest of the pair first
		assert.Equal(t, "two", msgs[0].Body)
		assert.Equal(t, "three", msgs[1].Body)
	})

	t.Run("GetMessages scoped to campaign", func(t *testing.T) {
		msgs, err := repo.GetMessages(ctx, campaign.ID, 10, 0)
		assert.NoError(t, err)
		assert.Len(t, msgs, 1)
		assert.Equal(t, "Hello", msgs[0].Body)
	})
}
