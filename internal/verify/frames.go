package verify

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// downscaleFrame decodes a liveness frame, scales it by the given factor and
// re-encodes it as JPEG for the landmark extractor. Landmark coordinates come
// back in the downscaled pixel space, which is also the space the movement
// threshold is defined in.
func downscaleFrame(data []byte, scale float64) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	if scale <= 0 || scale >= 1 {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("encode frame: %w", err)
		}
		return buf.Bytes(), nil
	}

	bounds := img.Bounds()
	newWidth := int(float64(bounds.Dx()) * scale)
	newHeight := int(float64(bounds.Dy()) * scale)
	if newWidth < 1 || newHeight < 1 {
		return nil, fmt.Errorf("frame too small to downscale: %dx%d", bounds.Dx(), bounds.Dy())
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode downscaled frame: %w", err)
	}
	return buf.Bytes(), nil
}
