package models

import "time"

// AttachmentStatus tracks thumbnail processing for an uploaded image.
type AttachmentStatus string

const (
	// AttachmentStatusQueued means the upload is stored but thumbnails are pending.
	AttachmentStatusQueued AttachmentStatus = "queued"
	// AttachmentStatusProcessing means a worker has claimed the attachment.
	AttachmentStatusProcessing AttachmentStatus = "processing"
	// AttachmentStatusReady means thumbnails have been generated.
	AttachmentStatusReady AttachmentStatus = "ready"
	// AttachmentStatusFailed means thumbnail generation failed; the original still serves.
	AttachmentStatusFailed AttachmentStatus = "failed"
)

// Attachment is the metadata record for a blob stored in the media store.
// The blob itself lives on disk under Path; URL is the public address handed
// to clients and embedded in post documents.
type Attachment struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	Path             string           `gorm:"uniqueIndex;not null" json:"-"`
	URL              string           `gorm:"uniqueIndex;not null" json:"url"`
	OriginalFilename string           `json:"original_filename"`
	MimeType         string           `json:"mime_type"`
	SizeBytes        int64            `json:"size_bytes"`
	Status           AttachmentStatus `gorm:"type:varchar(20);not null;default:'queued'" json:"status"`
	ThumbnailPath    string           `json:"-"`
	LastError        string           `json:"-"`
	ProcessingStartedAt *time.Time    `json:"-"`
	ProcessingAttempts  int           `gorm:"not null;default:0" json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
