// Package image readies a locally captured photo for upload: it validates
// the local resource reference, corrects orientation and compresses the
// payload. No network access happens here.
package image

import (
	"errors"
	"strings"

	"github.com/apex/log"
)

// ErrInvalidImageURI marks a reference that is not a recognized local
// resource, e.g. a remote URL.
var ErrInvalidImageURI = errors.New("invalid image uri")

// localSchemes are the device-local resource references accepted by the
// pipeline. Anything else (http, https, ftp, ...) is rejected.
var localSchemes = []string{"file://", "content://", "data:"}

// ValidateLocalURI checks that uri points at a local resource.
func ValidateLocalURI(uri string) error {
	for _, scheme := range localSchemes {
		if strings.HasPrefix(uri, scheme) {
			return nil
		}
	}
	return ErrInvalidImageURI
}

// Prepare compresses the photo on a best-effort basis. Compression failure
// is not fatal: the original payload is uploaded unmodified rather than
// aborting the whole submission.
func Prepare(data []byte) []byte {
	compressed, err := Compress(data)
	if err != nil {
		log.Warnf("Image compression failed, uploading original: %v", err)
		return data
	}
	return compressed
}
