// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"campfire/internal/models"
	"campfire/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendCampaignMessage handles POST /api/campaigns/:id/messages. Membership is
// checked server-side; the persisted message is fanned out to connected
// campaign members over the chat hub.
func (s *Server) SendCampaignMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	campaignID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatService.SendMessage(ctx, service.SendMessageInput{
		UserID:     userID,
		CampaignID: campaignID,
		Body:       req.Body,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishChatMessage(campaignID, message)

	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetCampaignMessages handles GET /api/campaigns/:id/messages. Returns the
// campaign's chat history oldest first; members only.
func (s *Server) GetCampaignMessages(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	campaignID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 50)

	messages, err := s.chatService.GetMessages(ctx, campaignID, userID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(messages)
}
