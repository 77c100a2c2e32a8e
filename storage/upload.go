package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"

	"report-submit-pipeline/models"
)

const (
	fileNamePrefix   = "issue"
	tokenAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength      = 13
	defaultExtension = "jpg"
)

// Uploader is the upload coordinator: it pushes prepared image payloads into
// the object store and maps failures into user-meaningful messages. It never
// returns a Go error; all failure is captured in the UploadResult.
type Uploader struct {
	store ObjectStore
}

func NewUploader(store ObjectStore) *Uploader {
	return &Uploader{store: store}
}

// Upload stores the payload under fileName and returns its public URL.
// Empty payloads are rejected before any network round-trip. No automatic
// retry is performed; the caller decides whether the user retries the whole
// submission.
func (u *Uploader) Upload(ctx context.Context, data []byte, fileName string) models.UploadResult {
	if len(data) == 0 {
		return models.UploadResult{
			Success: false,
			Error:   "Invalid image data. Please try taking the photo again.",
		}
	}

	if err := u.store.Put(ctx, fileName, data, "image/jpeg"); err != nil {
		log.Errorf("Image upload failed for %q: %v", fileName, err)
		return models.UploadResult{Success: false, Error: userMessage(err)}
	}

	url := u.store.PublicURL(fileName)
	if url == "" {
		return models.UploadResult{
			Success: false,
			Error:   "Failed to get public URL for the uploaded image.",
		}
	}

	log.Infof("Image uploaded: %s (%d bytes)", fileName, len(data))
	return models.UploadResult{Success: true, PublicURL: url}
}

// Remove issues a best-effort delete, used for report deletion and for the
// compensating cleanup when a later pipeline step fails.
func (u *Uploader) Remove(ctx context.Context, fileName string) error {
	return u.store.Remove(ctx, fileName)
}

// userMessage translates a categorized storage error into the single
// human-readable message shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrNetwork):
		return "Network connection failed. Please check your internet connection."
	case errors.Is(err, ErrStorageAccess):
		return "Storage bucket not accessible. Please check your configuration."
	case errors.Is(err, ErrObjectExists):
		return "An image with the same name already exists. Please try again."
	default:
		return "Upload failed: " + err.Error()
	}
}

// GenerateFileName builds a collision-resistant object name from a fixed
// prefix, a millisecond timestamp and a short random token, keeping the
// original extension when one can be detected. No uniqueness round-trip is
// performed; the overwrite-disabled put catches the (negligible) collision.
func GenerateFileName(originalURI string) string {
	return fmt.Sprintf("%s-%d-%s.%s",
		fileNamePrefix, time.Now().UnixMilli(), randomToken(tokenLength), extensionOf(originalURI))
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unheard of; fall back to a
		// timestamp-derived token so upload still proceeds.
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	for i := range buf {
		buf[i] = tokenAlphabet[int(buf[i])%len(tokenAlphabet)]
	}
	return string(buf)
}

// extensionOf extracts a plausible file extension from the original local
// resource reference, defaulting to jpg for opaque references such as
// content:// which carry no extension.
func extensionOf(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	dot := strings.LastIndex(uri, ".")
	slash := strings.LastIndex(uri, "/")
	if dot <= slash || dot == len(uri)-1 {
		return defaultExtension
	}
	ext := strings.ToLower(uri[dot+1:])
	if len(ext) > 4 {
		return defaultExtension
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultExtension
		}
	}
	return ext
}
