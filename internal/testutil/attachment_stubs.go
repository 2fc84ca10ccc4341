// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"time"

	"campfire/internal/models"

	"gorm.io/gorm"
)

// AttachmentRepoStub is an in-memory attachment repository implementation for tests.
type AttachmentRepoStub struct {
	items  map[uint]*models.Attachment
	nextID uint
}

// NewAttachmentRepoStub creates an in-memory attachment repository stub for tests.
func NewAttachmentRepoStub() *AttachmentRepoStub {
	return &AttachmentRepoStub{items: make(map[uint]*models.Attachment), nextID: 1}
}

// Create stores attachment metadata in-memory.
func (s *AttachmentRepoStub) Create(_ context.Context, attachment *models.Attachment) error {
	if attachment.ID == 0 {
		attachment.ID = s.nextID
		s.nextID++
	}
	now := time.Now().UTC()
	attachment.CreatedAt = now
	attachment.UpdatedAt = now
	s.items[attachment.ID] = attachment
	return nil
}

// GetByID fetches an attachment by ID.
func (s *AttachmentRepoStub) GetByID(_ context.Context, id uint) (*models.Attachment, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

// GetByURL fetches an attachment by its public URL.
func (s *AttachmentRepoStub) GetByURL(_ context.Context, url string) (*models.Attachment, error) {
	for _, item := range s.items {
		if item.URL == url {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Delete removes the attachment record.
func (s *AttachmentRepoStub) Delete(_ context.Context, id uint) error {
	delete(s.items, id)
	return nil
}

// ClaimNextQueued marks and returns the next queued attachment.
func (s *AttachmentRepoStub) ClaimNextQueued(_ context.Context) (*models.Attachment, error) {
	for _, item := range s.items {
		if item.Status == models.AttachmentStatusQueued {
			item.Status = models.AttachmentStatusProcessing
			now := time.Now().UTC()
			item.ProcessingStartedAt = &now
			item.ProcessingAttempts++
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// MarkReady marks an attachment as ready with its thumbnail path.
func (s *AttachmentRepoStub) MarkReady(_ context.Context, id uint, thumbnailPath string) error {
	item, ok := s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Status = models.AttachmentStatusReady
	item.ThumbnailPath = thumbnailPath
	item.LastError = ""
	item.ProcessingStartedAt = nil
	return nil
}

// MarkFailed marks an attachment as failed with an error message.
func (s *AttachmentRepoStub) MarkFailed(_ context.Context, id uint, errMsg string) error {
	item, ok := s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Status = models.AttachmentStatusFailed
	item.LastError = errMsg
	item.ProcessingStartedAt = nil
	return nil
}

// RequeueStaleProcessing is a no-op for the in-memory stub.
func (s *AttachmentRepoStub) RequeueStaleProcessing(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
