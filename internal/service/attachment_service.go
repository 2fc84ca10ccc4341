package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"campfire/internal/config"
	"campfire/internal/middleware"
	"campfire/internal/models"
	"campfire/internal/observability"
	"campfire/internal/repository"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"gorm.io/gorm"

	"image/jpeg"
	_ "image/gif" // Register GIF decoder
	_ "image/png" // Register PNG decoder
)

const (
	DefaultMediaDir       = "./media"
	DefaultMediaBaseURL   = "/media"
	DefaultMaxUploadBytes = 5 * 1024 * 1024

	ThumbnailMaxSize = 256
	JPEGQuality      = 82
	WebPQuality      = 70
)

type UploadAttachmentInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// AttachmentService stores uploaded images on disk and tracks their metadata.
// Uploads are synchronous; thumbnail generation happens on a background
// worker claiming queued rows.
type AttachmentService struct {
	repo           repository.AttachmentRepository
	mediaDir       string
	baseURL        string
	maxUploadBytes int64
	now            func() time.Time
	workerOnce     sync.Once
}

func NewAttachmentService(repo repository.AttachmentRepository, cfg *config.Config) *AttachmentService {
	mediaDir := DefaultMediaDir
	baseURL := DefaultMediaBaseURL
	maxUploadBytes := int64(DefaultMaxUploadBytes)

	if cfg != nil {
		if cfg.MediaDir != "" {
			mediaDir = cfg.MediaDir
		}
		if cfg.MediaBaseURL != "" {
			baseURL = cfg.MediaBaseURL
		}
		if cfg.MaxUploadBytes > 0 {
			maxUploadBytes = cfg.MaxUploadBytes
		}
	}

	return &AttachmentService{
		repo:           repo,
		mediaDir:       mediaDir,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// StartBackgroundWorker launches the thumbnail worker. Safe to call more
// than once; only the first call starts the loop.
func (s *AttachmentService) StartBackgroundWorker(ctx context.Context) {
	if s.repo == nil {
		return
	}
	s.workerOnce.Do(func() {
		go s.workerLoop(ctx)
	})
}

// Upload validates and stores an image, then records its metadata. The blob
// is written before the row so a serving URL never points at a missing file;
// if the row insert fails the blob is removed again.
func (s *AttachmentService) Upload(ctx context.Context, in UploadAttachmentInput) (*models.Attachment, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes/(1024*1024)))
	}

	// Trust the bytes, not the declared content type.
	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detectedType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}
	if _, _, err := image.Decode(bytes.NewReader(in.Content)); err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	relPath := s.buildStoragePath(in.UserID, in.Filename)
	absPath := filepath.Join(s.mediaDir, filepath.FromSlash(relPath))

	if err := writeBytesToFile(absPath, in.Content); err != nil {
		return nil, models.NewInternalError(err)
	}

	record := &models.Attachment{
		UserID:           in.UserID,
		Path:             relPath,
		URL:              s.baseURL + "/" + relPath,
		OriginalFilename: in.Filename,
		MimeType:         detectedType,
		SizeBytes:        int64(len(in.Content)),
		Status:           models.AttachmentStatusQueued,
	}
	if s.repo != nil {
		if err := s.repo.Create(ctx, record); err != nil {
			_ = os.Remove(absPath)
			return nil, models.NewInternalError(err)
		}
	}

	middleware.UploadBytes.Add(float64(len(in.Content)))
	return record, nil
}

// buildStoragePath returns the blob's path under the media root:
// posts/<userID>/<unix-nanos>_<sanitized filename>.
func (s *AttachmentService) buildStoragePath(userID uint, filename string) string {
	return fmt.Sprintf("posts/%d/%d_%s", userID, s.now().UnixNano(), sanitizeFilename(filename))
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	cleaned := unsafeFilenameChars.ReplaceAllString(base, "_")
	if len(cleaned) > 100 {
		cleaned = cleaned[len(cleaned)-100:]
	}
	return cleaned
}

// DeleteByURL removes the blob and its metadata row for the given public
// URL. URLs outside the media prefix are ignored.
func (s *AttachmentService) DeleteByURL(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	if s.repo == nil {
		return nil
	}

	attachment, err := s.repo.GetByURL(ctx, url)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return models.NewInternalError(err)
	}

	s.removeBlobFiles(attachment)
	if err := s.repo.Delete(ctx, attachment.ID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CleanupURL is DeleteByURL with errors reduced to a log line, for use as an
// injected compensation hook.
func (s *AttachmentService) CleanupURL(ctx context.Context, url string) {
	if err := s.DeleteByURL(ctx, url); err != nil {
		log.Printf("WARNING: failed to clean up attachment %s: %v", url, err)
	}
}

func (s *AttachmentService) removeBlobFiles(attachment *models.Attachment) {
	_ = os.Remove(filepath.Join(s.mediaDir, filepath.FromSlash(attachment.Path)))
	if attachment.ThumbnailPath != "" {
		_ = os.Remove(filepath.Join(s.mediaDir, filepath.FromSlash(attachment.ThumbnailPath)))
	}
}

// ResolveForServing maps a relative media path to the file on disk,
// rejecting traversal attempts.
func (s *AttachmentService) ResolveForServing(relPath string) (string, error) {
	cleaned := filepath.ToSlash(filepath.Clean("/" + relPath))[1:]
	if cleaned == "" || strings.Contains(cleaned, "..") {
		return "", models.NewValidationError("Invalid media path")
	}
	fullPath := filepath.Join(s.mediaDir, filepath.FromSlash(cleaned))
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("Media", cleaned)
		}
		return "", models.NewInternalError(err)
	}
	return fullPath, nil
}

func (s *AttachmentService) workerLoop(ctx context.Context) {
	const staleDuration = 15 * time.Minute
	const idleSleep = 750 * time.Millisecond

	_, _ = s.repo.RequeueStaleProcessing(ctx, staleDuration)
	lastRequeue := time.Now().UTC()

	for {
		if ctx.Err() != nil {
			return
		}
		if time.Since(lastRequeue) >= time.Minute {
			_, _ = s.repo.RequeueStaleProcessing(ctx, staleDuration)
			lastRequeue = time.Now().UTC()
		}

		attachment, err := s.repo.ClaimNextQueued(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if !sleepContext(ctx, idleSleep) {
					return
				}
				continue
			}
			if !sleepContext(ctx, time.Second) {
				return
			}
			continue
		}

		if err := s.generateThumbnail(ctx, attachment); err != nil {
			if ferr := s.repo.MarkFailed(ctx, attachment.ID, err.Error()); ferr != nil {
				log.Printf("ERROR: failed to mark attachment %d as failed: %v (original error: %v)", attachment.ID, ferr, err)
			}
		}
	}
}

func (s *AttachmentService) generateThumbnail(ctx context.Context, attachment *models.Attachment) error {
	span, ctx := observability.NewSpan(ctx, "attachment.thumbnail")
	defer span.End()
	span.AddAttributes(attribute.Int64("attachment.id", int64(attachment.ID)))

	if err := s.renderThumbnail(ctx, attachment); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

func (s *AttachmentService) renderThumbnail(ctx context.Context, attachment *models.Attachment) error {
	srcPath := filepath.Join(s.mediaDir, filepath.FromSlash(attachment.Path))
	// #nosec G304: srcPath is constructed from a sanitized stored path
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	src, _, err := image.Decode(f)
	if err != nil {
		return err
	}

	thumb := resizeToFit(src, ThumbnailMaxSize, ThumbnailMaxSize)
	encoded, suffix, err := encodeThumbnail(thumb)
	if err != nil {
		return err
	}

	thumbRel := thumbnailPathFor(attachment.Path, suffix)
	if err := writeBytesToFile(filepath.Join(s.mediaDir, filepath.FromSlash(thumbRel)), encoded); err != nil {
		return err
	}

	return s.repo.MarkReady(ctx, attachment.ID, thumbRel)
}

// encodeThumbnail encodes WebP first and falls back to JPEG when the WebP
// encoder rejects the image. Returns the encoded bytes and the thumbnail
// filename suffix.
func encodeThumbnail(img image.Image) ([]byte, string, error) {
	if encoded, err := encodeWebP(img, WebPQuality); err == nil {
		return encoded, ".thumb.webp", nil
	}
	encoded, err := encodeJPEG(img, JPEGQuality)
	if err != nil {
		return nil, "", err
	}
	return encoded, ".thumb.jpg", nil
}

// thumbnailPathFor places the thumbnail next to the original with the given
// suffix in place of the original extension.
func thumbnailPathFor(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
