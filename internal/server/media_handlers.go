// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"io"

	"campfire/internal/models"
	"campfire/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/media (multipart form, field "file").
// The image is validated against its actual bytes, stored, and queued for
// thumbnail generation. The returned URL can be attached to a post.
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	attachment, err := s.attachmentService.Upload(ctx, service.UploadAttachmentInput{
		UserID:      userID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url":        attachment.URL,
		"path":       attachment.Path,
		"mime_type":  attachment.MimeType,
		"size_bytes": attachment.SizeBytes,
		"status":     attachment.Status,
	})
}

// ServeMedia handles GET /media/* and serves stored blobs from disk.
// Paths are resolved inside the media root; traversal attempts 404.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	relPath := c.Params("*")
	if relPath == "" {
		return c.SendStatus(fiber.StatusNotFound)
	}

	absPath, err := s.attachmentService.ResolveForServing(relPath)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	return c.SendFile(absPath)
}
