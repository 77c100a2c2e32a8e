package image

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodeWidth(t *testing.T, data []byte) int {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode image: %v", err)
	}
	return img.Bounds().Dx()
}

func TestValidateLocalURI(t *testing.T) {
	tests := []struct {
		uri     string
		wantErr bool
	}{
		{"file:///var/mobile/photo.jpg", false},
		{"content://media/external/images/1234", false},
		{"data:image/jpeg;base64,/9j/4AAQ", false},
		{"https://example.com/photo.jpg", true},
		{"http://example.com/photo.jpg", true},
		{"ftp://example.com/photo.jpg", true},
		{"photo.jpg", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateLocalURI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLocalURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
		}
	}
}

func TestCompressScalesWideImages(t *testing.T) {
	data := encodeTestJPEG(t, 2048, 1536)

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if w := decodeWidth(t, compressed); w != maxImageWidth {
		t.Errorf("compressed width = %d, want %d", w, maxImageWidth)
	}
}

func TestCompressKeepsSmallImages(t *testing.T) {
	data := encodeTestJPEG(t, 640, 480)

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if !bytes.Equal(compressed, data) {
		t.Error("image within the width limit should be returned unchanged")
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	if _, err := Compress([]byte("not an image")); err == nil {
		t.Error("Compress() on garbage input should fail")
	}
}

func TestPrepareFallsBackToOriginal(t *testing.T) {
	garbage := []byte("not an image at all")
	if got := Prepare(garbage); !bytes.Equal(got, garbage) {
		t.Error("Prepare() should fall back to the original payload when compression fails")
	}

	data := encodeTestJPEG(t, 2048, 100)
	if got := Prepare(data); decodeWidth(t, got) != maxImageWidth {
		t.Errorf("Prepare() width = %d, want %d", decodeWidth(t, got), maxImageWidth)
	}
}
