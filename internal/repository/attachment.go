package repository

import (
	"context"
	"errors"
	"time"

	"campfire/internal/models"

	"gorm.io/gorm"
)

// AttachmentRepository defines storage operations for uploaded media metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id uint) (*models.Attachment, error)
	GetByURL(ctx context.Context, url string) (*models.Attachment, error)
	Delete(ctx context.Context, id uint) error
	ClaimNextQueued(ctx context.Context) (*models.Attachment, error)
	MarkReady(ctx context.Context, id uint, thumbnailPath string) error
	MarkFailed(ctx context.Context, id uint, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, olderThan time.Duration) (int64, error)
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository returns a repository implementation for attachment metadata.
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepository) GetByID(ctx context.Context, id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).First(&attachment, id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) GetByURL(ctx context.Context, url string) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Attachment{}, id).Error
}

func (r *attachmentRepository) ClaimNextQueued(ctx context.Context) (*models.Attachment, error) {
	if r.db.Name() == "postgres" {
		var claimed models.Attachment
		err := r.db.WithContext(ctx).Raw(`
WITH picked AS (
	SELECT id
	FROM attachments
	WHERE status = ?
	ORDER BY id
	FOR UPDATE SKIP LOCKED
	LIMIT 1
)
UPDATE attachments a
SET status = ?,
    processing_started_at = NOW(),
    processing_attempts = a.processing_attempts + 1,
    last_error = ''
FROM picked
WHERE a.id = picked.id
RETURNING a.*
`, models.AttachmentStatusQueued, models.AttachmentStatusProcessing).Scan(&claimed).Error
		if err != nil {
			return nil, err
		}
		if claimed.ID == 0 {
			return nil, gorm.ErrRecordNotFound
		}
		return &claimed, nil
	}

	// SQLite/test fallback (best-effort atomicity).
	var claimed models.Attachment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ?", models.AttachmentStatusQueued).Order("id ASC").First(&claimed).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Attachment{}).
			Where("id = ? AND status = ?", claimed.ID, models.AttachmentStatusQueued).
			Updates(map[string]interface{}{
				"status":                models.AttachmentStatusProcessing,
				"processing_started_at": time.Now().UTC(),
				"processing_attempts":   gorm.Expr("processing_attempts + 1"),
				"last_error":            "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&claimed, claimed.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}

func (r *attachmentRepository) MarkReady(ctx context.Context, id uint, thumbnailPath string) error {
	return r.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":                models.AttachmentStatusReady,
			"thumbnail_path":        thumbnailPath,
			"last_error":            "",
			"processing_started_at": nil,
		}).Error
}

func (r *attachmentRepository) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	if len(errMsg) > 4000 {
		errMsg = errMsg[:4000]
	}
	return r.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":                models.AttachmentStatusFailed,
			"last_error":            errMsg,
			"processing_started_at": nil,
		}).Error
}

func (r *attachmentRepository) RequeueStaleProcessing(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("status = ? AND processing_started_at IS NOT NULL AND processing_started_at < ?", models.AttachmentStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":                models.AttachmentStatusQueued,
			"processing_started_at": nil,
		})
	return res.RowsAffected, res.Error
}
