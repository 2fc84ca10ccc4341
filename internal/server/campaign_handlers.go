// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"time"

	"campfire/internal/models"
	"campfire/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCampaign handles POST /api/campaigns. The creator is automatically
// enrolled as the first member. Campaign metadata is immutable once created.
func (s *Server) CreateCampaign(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	campaign, err := s.campaignService.CreateCampaign(ctx, service.CreateCampaignInput{
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishBroadcastEvent(EventCampaignCreated, map[string]interface{}{
		"campaign_id": campaign.ID,
		"creator_id":  campaign.CreatorID,
		"created_at":  time.Now().UTC().Format(time.RFC3339Nano),
	})

	return c.Status(fiber.StatusCreated).JSON(campaign)
}

// GetCampaigns handles GET /api/campaigns (public browse).
func (s *Server) GetCampaigns(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)

	campaigns, err := s.campaignService.ListCampaigns(ctx, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(campaigns)
}

// GetJoinedCampaigns handles GET /api/campaigns/joined.
func (s *Server) GetJoinedCampaigns(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	campaigns, err := s.campaignService.ListJoinedCampaigns(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(campaigns)
}

// GetCampaign handles GET /api/campaigns/:id.
func (s *Server) GetCampaign(c *fiber.Ctx) error {
	ctx := c.Context()
	campaignID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	campaign, err := s.campaignService.GetCampaign(ctx, campaignID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(campaign)
}

// AddCampaignMember handles POST /api/campaigns/:id/members. Creator only;
// members are looked up by username and re-adding is a no-op.
func (s *Server) AddCampaignMember(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	campaignID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Username string `json:"username"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	campaign, err := s.campaignService.AddMemberByUsername(ctx, service.AddMemberInput{
		CampaignID:  campaignID,
		ActorUserID: userID,
		Username:    req.Username,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishBroadcastEvent(EventCampaignMemberAdded, map[string]interface{}{
		"campaign_id": campaignID,
		"username":    req.Username,
		"updated_at":  time.Now().UTC().Format(time.RFC3339Nano),
	})

	return c.JSON(campaign)
}

// GetCampaignMembers handles GET /api/campaigns/:id/members.
func (s *Server) GetCampaignMembers(c *fiber.Ctx) error {
	ctx := c.Context()
	campaignID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	members, err := s.campaignService.GetMembers(ctx, campaignID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(members)
}

// DeleteCampaign handles DELETE /api/campaigns/:id. The campaign, its posts,
// chat history and memberships are removed together; only the creator (or an
// admin) may delete.
func (s *Server) DeleteCampaign(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	campaignID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.campaignService.DeleteCampaign(ctx, campaignID, userID); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetCampaignPosts handles GET /api/campaigns/:id/posts.
func (s *Server) GetCampaignPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	campaignID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	posts, err := s.postService.GetCampaignPosts(ctx, campaignID, page.Limit, page.Offset, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// CreateCampaignPost handles POST /api/campaigns/:id/posts. Members only.
func (s *Server) CreateCampaignPost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	campaignID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ImageURL string `json:"image_url,omitempty"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		UserID:     userID,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		CampaignID: &campaignID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}
