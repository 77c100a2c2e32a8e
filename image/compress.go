package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/apex/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const (
	// maxImageWidth bounds the uploaded photo width; height follows the
	// aspect ratio.
	maxImageWidth = 1024
	jpegQuality   = 80
)

// orientation extracts the EXIF orientation tag from JPEG data. Anything
// unreadable counts as the identity orientation.
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// remap copies img into a w x h canvas through a source-to-destination
// coordinate mapping.
func remap(img image.Image, w, h int, to func(x, y int) (int, int)) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	bounds := img.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			tx, ty := to(x, y)
			out.Set(tx, ty, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return out
}

// reorient applies the EXIF orientation so the encoded output is upright.
func reorient(img image.Image, orient int) image.Image {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	switch orient {
	case 2: // flip horizontal
		return remap(img, w, h, func(x, y int) (int, int) { return w - 1 - x, y })
	case 3: // rotate 180
		return remap(img, w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4: // flip vertical
		return remap(img, w, h, func(x, y int) (int, int) { return x, h - 1 - y })
	case 5: // transpose
		return remap(img, h, w, func(x, y int) (int, int) { return y, x })
	case 6: // rotate 90 clockwise
		return remap(img, h, w, func(x, y int) (int, int) { return h - 1 - y, x })
	case 7: // transverse
		return remap(img, h, w, func(x, y int) (int, int) { return h - 1 - y, w - 1 - x })
	case 8: // rotate 90 counter-clockwise
		return remap(img, h, w, func(x, y int) (int, int) { return y, w - 1 - x })
	default:
		return img
	}
}

// Compress decodes the photo, corrects its EXIF orientation, scales it down
// to at most maxImageWidth pixels wide and re-encodes it as JPEG. Images
// already within the width limit are returned unchanged (aside from
// orientation correction when needed).
func Compress(data []byte) ([]byte, error) {
	orient := orientation(data)

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if orient != 1 {
		img = reorient(img, orient)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	if width <= maxImageWidth && orient == 1 {
		return data, nil
	}

	newWidth := width
	newHeight := height
	if width > maxImageWidth {
		scale := float64(maxImageWidth) / float64(width)
		newWidth = maxImageWidth
		newHeight = int(float64(height) * scale)
		if newHeight < 1 {
			newHeight = 1
		}
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode compressed image: %w", err)
	}

	log.Infof("Image compressed: %d bytes -> %d bytes (original: %dx%d, new: %dx%d, orientation: %d)",
		len(data), buf.Len(), width, height, newWidth, newHeight, orient)

	return buf.Bytes(), nil
}
