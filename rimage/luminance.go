// Package rimage provides the grayscale conversion and convolution
// primitives backing chessboard corner detection.
package rimage

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// ConvertImageToLuminanceFloat converts an image to a luminance matrix with one
// row per pixel row. Values are in [0, 255].
func ConvertImageToLuminanceFloat(img image.Image) *mat.Dense {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Rec. 601 luma, with 16-bit channels scaled back to [0, 255]
			lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.
			out.Set(y, x, lum)
		}
	}
	return out
}
