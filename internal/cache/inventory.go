package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	PostKeyPrefix        = "post:%d"
	CampaignKeyPrefix    = "campaign:%d"
	PopularFeedKey       = "feed:popular"
	ChatHistoryPrefix    = "campaign:%d:chat"
	FollowersKeyPrefix   = "user:%d:followers"
	FollowingKeyPrefix   = "user:%d:following"
)

const (
	UserTTL        = 5 * time.Minute
	CampaignTTL    = 10 * time.Minute
	ChatHistoryTTL = 2 * time.Minute
	PostTTL        = 30 * time.Minute
	PopularFeedTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func CampaignKey(campaignID uint) string {
	return fmt.Sprintf(CampaignKeyPrefix, campaignID)
}

func ChatHistoryKey(campaignID uint) string {
	return fmt.Sprintf(ChatHistoryPrefix, campaignID)
}

func FollowersKey(userID uint) string {
	return fmt.Sprintf(FollowersKeyPrefix, userID)
}

func FollowingKey(userID uint) string {
	return fmt.Sprintf(FollowingKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateCampaign(ctx context.Context, campaignID uint) {
	Invalidate(ctx, CampaignKey(campaignID))
	Invalidate(ctx, ChatHistoryKey(campaignID))
}

func InvalidatePopularFeed(ctx context.Context) {
	Invalidate(ctx, PopularFeedKey)
}

// InvalidateFollowGraph drops both sides of a follow edge. Called after a
// toggle so cached follower/following lists never show a half-applied edge.
func InvalidateFollowGraph(ctx context.Context, followerID, followeeID uint) {
	Invalidate(ctx, FollowingKey(followerID))
	Invalidate(ctx, FollowersKey(followeeID))
	Invalidate(ctx, UserKey(followerID))
	Invalidate(ctx, UserKey(followeeID))
}
