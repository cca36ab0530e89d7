package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/iasrobolab/camera-calibration/utils"
)

// Kernel is a 2D convolution kernel.
type Kernel struct {
	Content [][]float64
	Width   int
	Height  int
}

// At returns the kernel value at position (x, y).
func (k *Kernel) At(x, y int) float64 {
	return k.Content[y][x]
}

// Size returns the kernel dimensions as an image.Point.
func (k *Kernel) Size() image.Point {
	return image.Point{k.Width, k.Height}
}

// GetSobelX returns the Kernel corresponding to the Sobel kernel in the x direction.
func GetSobelX() Kernel {
	return Kernel{[][]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	},
		3,
		3,
	}
}

// GetSobelY returns the Kernel corresponding to the Sobel kernel in the y direction.
func GetSobelY() Kernel {
	return Kernel{[][]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	},
		3,
		3,
	}
}

// GetBlur3 returns a normalized 3x3 box blur kernel.
func GetBlur3() Kernel {
	third := 1. / 9.
	return Kernel{[][]float64{
		{third, third, third},
		{third, third, third},
		{third, third, third},
	},
		3,
		3,
	}
}

// GetGaussian returns a normalized Gaussian kernel with the given standard
// deviation. The kernel spans 3 sigma on each side of the center.
func GetGaussian(sigma float64) Kernel {
	k := 1 + 2*int(math.Ceil(3.*sigma))
	if k < 3 {
		k = 3
	}
	half := k / 2
	content := make([][]float64, k)
	sum := 0.
	for y := 0; y < k; y++ {
		content[y] = make([]float64, k)
		for x := 0; x < k; x++ {
			dx, dy := float64(x-half), float64(y-half)
			v := math.Exp(-0.5 * (dx*dx + dy*dy) / (sigma * sigma))
			content[y][x] = v
			sum += v
		}
	}
	for y := 0; y < k; y++ {
		for x := 0; x < k; x++ {
			content[y][x] /= sum
		}
	}
	return Kernel{content, k, k}
}

// PaddingFloat64 pads a matrix by replicating its border values, so that a
// convolution with the given kernel size keeps the original dimensions.
func PaddingFloat64(m *mat.Dense, kernelSize image.Point) (*mat.Dense, error) {
	if kernelSize.X%2 == 0 || kernelSize.Y%2 == 0 {
		return nil, errors.Errorf("kernel dimensions must be odd, got (%d, %d)", kernelSize.X, kernelSize.Y)
	}
	h, w := m.Dims()
	padX, padY := kernelSize.X/2, kernelSize.Y/2
	padded := mat.NewDense(h+2*padY, w+2*padX, nil)
	for y := 0; y < h+2*padY; y++ {
		srcY := utils.ClampF64(float64(y-padY), 0, float64(h-1))
		for x := 0; x < w+2*padX; x++ {
			srcX := utils.ClampF64(float64(x-padX), 0, float64(w-1))
			padded.Set(y, x, m.At(int(srcY), int(srcX)))
		}
	}
	return padded, nil
}

// ConvolveGrayFloat64 implements a gray float64 image convolution with the Kernel
// filter. There is no clamping in this case.
func ConvolveGrayFloat64(m *mat.Dense, filter *Kernel) (*mat.Dense, error) {
	h, w := m.Dims()
	result := mat.NewDense(h, w, nil)
	kernelSize := filter.Size()
	padded, err := PaddingFloat64(m, kernelSize)
	if err != nil {
		return nil, err
	}

	utils.ParallelForEachPixel(image.Point{w, h}, func(x, y int) {
		sum := float64(0)
		for ky := 0; ky < kernelSize.Y; ky++ {
			for kx := 0; kx < kernelSize.X; kx++ {
				pixel := padded.At(y+ky, x+kx)
				kE := filter.At(kx, ky)
				sum += pixel * kE
			}
		}
		result.Set(y, x, sum)
	})
	return result, nil
}
