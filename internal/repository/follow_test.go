package repository

import (
	"context"
	"testing"

	"campfire/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupFollowDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Follow{}))
	return db
}

func TestFollowRepository_Toggle(t *testing.T) {
	db := setupFollowDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "a@e.com", Password: "x"}
	bob := &models.User{Username: "bob", Email: "b@e.com", Password: "x"}
	db.Create(alice)
	db.Create(bob)

	t.Run("first toggle creates the edge", func(t *testing.T) {
		following, err := repo.Toggle(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, following)

		isFollowing, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, isFollowing)
	})

	t.Run("second toggle removes the edge", func(t *testing.T) {
		following, err := repo.Toggle(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, following)

		isFollowing, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, isFollowing)

		var count int64
		db.Model(&models.Follow{}).Count(&count)
		assert.Zero(t, count, "edge rows should be hard-deleted")
	})

	t.Run("edge is directed", func(t *testing.T) {
		_, err := repo.Toggle(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		reverse, err := repo.IsFollowing(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, reverse, "bob should not follow alice back automatically")
	})
}

func TestFollowRepository_ListsAndCounts(t *testing.T) {
	db := setupFollowDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	users := make([]*models.User, 0, 4)
	for _, name := range []string{"ember", "ash", "wren", "moss"} {
		u := &models.User{Username: name, Email: name + "@e.com", Password: "x"}
		db.Create(u)
		users = append(users, u)
	}

	// ash, wren and moss all follow ember; ember follows ash.
	for _, follower := range users[1:] {
		_, err := repo.Toggle(ctx, follower.ID, users[0].ID)
		require.NoError(t, err)
	}
	_, err := repo.Toggle(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)

	followers, err := repo.GetFollowers(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Len(t, followers, 3)

	following, err := repo.GetFollowing(ctx, users[0].ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "ash", following[0].Username)

	followerCount, followingCount, err := repo.Counts(ctx, users[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, followerCount)
	assert.EqualValues(t, 1, followingCount)

	// A user with no edges gets empty results, not an error.
	loner := &models.User{Username: "loner", Email: "l@e.com", Password: "x"}
	db.Create(loner)
	followers, err = repo.GetFollowers(ctx, loner.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)
}
