// Package imageio converts uploaded images into intensity grids.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"fringerestore/internal/models"
)

// ErrEmptyImage is returned for images without pixels.
var ErrEmptyImage = errors.New("imageio: image has no pixels")

// Decode reads an image in any registered format (PNG, JPEG, GIF, BMP,
// TIFF, WebP) and converts it to 8-bit luminance samples in [0, 255].
//
// Returns:
//   - The intensity grid
//   - The name of the detected format
func Decode(r io.Reader) (*models.Grid, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	grid, err := ToGrid(img)
	if err != nil {
		return nil, format, err
	}
	return grid, format, nil
}

// LoadFile decodes the image stored at path.
func LoadFile(path string) (*models.Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	grid, _, err := Decode(file)
	return grid, err
}

// ToGrid converts img to grayscale using the ITU-R 601 luma weights.
func ToGrid(img image.Image) (*models.Grid, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, ErrEmptyImage
	}

	grid := models.NewGrid(height, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			grid.Data[y*width+x] = float64(gray.Y)
		}
	}

	return grid, nil
}
