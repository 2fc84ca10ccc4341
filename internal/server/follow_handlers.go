// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// ToggleFollow handles POST /api/users/:id/follow
// The endpoint toggles: if the caller already follows the user it unfollows,
// otherwise it follows. Both sides of the relationship change atomically.
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	following, err := s.followService.ToggleFollow(ctx, userID, targetID)
	if err != nil {
		return respondServiceError(c, err)
	}

	eventType := EventFollowerRemoved
	if following {
		eventType = EventFollowerAdded
	}
	s.publishUserEvent(targetID, eventType, map[string]interface{}{
		"follower_id": userID,
		"updated_at":  time.Now().UTC().Format(time.RFC3339Nano),
	})

	return c.JSON(fiber.Map{
		"user_id":   targetID,
		"following": following,
	})
}

// GetMyFollowers handles GET /api/users/me/followers
func (s *Server) GetMyFollowers(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	users, err := s.followService.GetFollowers(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(users)
}

// GetMyFollowing handles GET /api/users/me/following
func (s *Server) GetMyFollowing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	users, err := s.followService.GetFollowing(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(users)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.followService.GetFollowers(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.followService.GetFollowing(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(users)
}
