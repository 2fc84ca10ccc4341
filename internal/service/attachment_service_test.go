package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campfire/internal/config"
	"campfire/internal/models"
	"campfire/internal/testutil"
)

func newAttachmentTestService(t *testing.T) (*AttachmentService, *testutil.AttachmentRepoStub, string) {
	t.Helper()
	repo := testutil.NewAttachmentRepoStub()
	dir := t.TempDir()
	cfg := &config.Config{MediaDir: dir, MediaBaseURL: "/media", MaxUploadBytes: 1024 * 1024}
	return NewAttachmentService(repo, cfg), repo, dir
}

func TestAttachmentUpload(t *testing.T) {
	svc, _, dir := newAttachmentTestService(t)

	content := testutil.TinyPNG(t, 64, 64)
	attachment, err := svc.Upload(context.Background(), UploadAttachmentInput{
		UserID:      42,
		Filename:    "avatar.png",
		ContentType: "image/png",
		Content:     content,
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if attachment.ID == 0 {
		t.Fatalf("expected persisted metadata, got %+v", attachment)
	}
	if !strings.HasPrefix(attachment.URL, "/media/posts/42/") {
		t.Fatalf("unexpected URL: %q", attachment.URL)
	}
	if attachment.Status != models.AttachmentStatusQueued {
		t.Fatalf("expected queued status, got %s", attachment.Status)
	}
	if attachment.MimeType != "image/png" {
		t.Fatalf("expected detected mime type image/png, got %s", attachment.MimeType)
	}

	blobPath := filepath.Join(dir, filepath.FromSlash(attachment.Path))
	if _, statErr := os.Stat(blobPath); statErr != nil {
		t.Fatalf("expected blob at %s: %v", blobPath, statErr)
	}
}

func TestAttachmentUploadValidation(t *testing.T) {
	svc, _, _ := newAttachmentTestService(t)

	tests := []struct {
		name  string
		input UploadAttachmentInput
	}{
		{
			name:  "Missing User",
			input: UploadAttachmentInput{Filename: "a.png", Content: testutil.TinyPNG(t, 4, 4)},
		},
		{
			name:  "Empty Content",
			input: UploadAttachmentInput{UserID: 1, Filename: "a.png"},
		},
		{
			name: "Not An Image",
			input: UploadAttachmentInput{
				UserID:      1,
				Filename:    "bad.txt",
				ContentType: "text/plain",
				Content:     []byte("not an image"),
			},
		},
		{
			name: "Too Large",
			input: UploadAttachmentInput{
				UserID:      1,
				Filename:    "huge.png",
				ContentType: "image/png",
				Content:     bytes.Repeat([]byte{'a'}, 2*1024*1024),
			},
		},
		{
			name: "Content Type Mismatch",
			input: UploadAttachmentInput{
				UserID:      1,
				Filename:    "sneaky.gif",
				ContentType: "image/gif",
				Content:     testutil.TinyPNG(t, 4, 4),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var appErr *models.AppError
			if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
				t.Fatalf("expected validation app error, got %v", err)
			}
		})
	}
}

func TestAttachmentDeleteByURL(t *testing.T) {
	svc, repo, dir := newAttachmentTestService(t)

	attachment, err := svc.Upload(context.Background(), UploadAttachmentInput{
		UserID:      7,
		Filename:    "gone.png",
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 8, 8),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if err := svc.DeleteByURL(context.Background(), attachment.URL); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	blobPath := filepath.Join(dir, filepath.FromSlash(attachment.Path))
	if _, statErr := os.Stat(blobPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected blob removed, stat err: %v", statErr)
	}
	if _, err := repo.GetByID(context.Background(), attachment.ID); err == nil {
		t.Fatal("expected metadata row removed")
	}

	// URLs outside the media prefix and unknown URLs are both no-ops
	if err := svc.DeleteByURL(context.Background(), "https://elsewhere.example/x.png"); err != nil {
		t.Fatalf("foreign URL should be ignored: %v", err)
	}
	if err := svc.DeleteByURL(context.Background(), "/media/posts/7/does-not-exist.png"); err != nil {
		t.Fatalf("unknown URL should be ignored: %v", err)
	}
}

func TestAttachmentThumbnailGeneration(t *testing.T) {
	svc, repo, dir := newAttachmentTestService(t)

	attachment, err := svc.Upload(context.Background(), UploadAttachmentInput{
		UserID:      3,
		Filename:    "big.png",
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 1024, 768),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	claimed, err := repo.ClaimNextQueued(context.Background())
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := svc.generateThumbnail(context.Background(), claimed); err != nil {
		t.Fatalf("thumbnail generation failed: %v", err)
	}

	stored, err := repo.GetByID(context.Background(), attachment.ID)
	if err != nil {
		t.Fatalf("load attachment: %v", err)
	}
	if stored.Status != models.AttachmentStatusReady {
		t.Fatalf("expected ready status, got %s", stored.Status)
	}
	if !strings.HasSuffix(stored.ThumbnailPath, ".thumb.webp") {
		t.Fatalf("unexpected thumbnail path: %q", stored.ThumbnailPath)
	}
	thumbPath := filepath.Join(dir, filepath.FromSlash(stored.ThumbnailPath))
	if _, statErr := os.Stat(thumbPath); statErr != nil {
		t.Fatalf("expected thumbnail at %s: %v", thumbPath, statErr)
	}
}

func TestEncodeThumbnailFormats(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	encoded, suffix, err := encodeThumbnail(img)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if suffix != ".thumb.webp" {
		t.Fatalf("expected webp suffix, got %q", suffix)
	}
	if len(encoded) == 0 {
		t.Fatal("expected encoded bytes")
	}

	// The JPEG fallback must produce a decodable image.
	jpegBytes, err := encodeJPEG(img, JPEGQuality)
	if err != nil {
		t.Fatalf("jpeg encode failed: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(jpegBytes)); err != nil {
		t.Fatalf("jpeg output not decodable: %v", err)
	}

	if got := thumbnailPathFor("posts/1/pic.png", ".thumb.jpg"); got != "posts/1/pic.thumb.jpg" {
		t.Fatalf("unexpected thumbnail path: %q", got)
	}
}

func TestResolveForServing(t *testing.T) {
	svc, _, _ := newAttachmentTestService(t)

	attachment, err := svc.Upload(context.Background(), UploadAttachmentInput{
		UserID:      5,
		Filename:    "ok.png",
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 8, 8),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	fullPath, err := svc.ResolveForServing(attachment.Path)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, statErr := os.Stat(fullPath); statErr != nil {
		t.Fatalf("expected resolved file to exist: %v", statErr)
	}

	if _, err := svc.ResolveForServing("../../etc/passwd"); err == nil {
		t.Fatal("expected traversal rejection")
	}
	if _, err := svc.ResolveForServing("posts/5/missing.png"); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"simple.png":        "simple.png",
		"../../evil.png":    "evil.png",
		"sp ace & sym!.jpg": "sp_ace___sym_.jpg",
		"":                  "upload",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
