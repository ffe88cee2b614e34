// Package storage is the object-storage collaborator for user uploads:
// voice notes and payment-proof screenshots.
package storage

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Uploader stores a binary payload and returns its public URL. Handlers
// accept this interface; SpacesUploader is the production implementation.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// VoiceKey builds the object key for a voice note. ext should carry the
// leading dot; uploads without a usable extension default to .webm, the
// browser recorder's container.
func VoiceKey(ext string) string {
	return "voices/" + uuid.NewString() + normalizeExt(ext, ".webm")
}

// ScreenshotKey builds the object key for a payment-proof screenshot.
func ScreenshotKey(ext string) string {
	return "transactions/" + uuid.NewString() + normalizeExt(ext, ".png")
}

func normalizeExt(ext, fallback string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || ext == "." {
		return fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
