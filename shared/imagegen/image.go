package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	_ "image/gif"
	_ "image/jpeg"
)

// flattenAndSave decodes image bytes, composites them onto a white
// background so transparency never reaches the publish form, and writes the
// result as PNG. An opaque result lets the encoder drop the alpha channel.
func flattenAndSave(data []byte, path string) error {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image data: %w", err)
	}

	bounds := src.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, src, bounds.Min, draw.Over)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, flat); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
