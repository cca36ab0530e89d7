package rimage

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestConvertImageToLuminanceFloat(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.White)
	img.Set(1, 0, color.Black)
	img.Set(2, 1, color.RGBA{R: 255, A: 255})
	m := ConvertImageToLuminanceFloat(img)
	h, w := m.Dims()
	test.That(t, h, test.ShouldEqual, 2)
	test.That(t, w, test.ShouldEqual, 4)
	test.That(t, m.At(0, 0), test.ShouldAlmostEqual, 255., 1e-6)
	test.That(t, m.At(0, 1), test.ShouldAlmostEqual, 0., 1e-6)
	test.That(t, m.At(1, 2), test.ShouldAlmostEqual, 0.299*255., 1e-6)
}

func TestConvolveGrayFloat64(t *testing.T) {
	// horizontal ramp: constant gradient in x, zero in y
	h, w := 8, 8
	m := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(y, x, float64(10*x))
		}
	}
	sobelX := GetSobelX()
	gX, err := ConvolveGrayFloat64(m, &sobelX)
	test.That(t, err, test.ShouldBeNil)
	sobelY := GetSobelY()
	gY, err := ConvolveGrayFloat64(m, &sobelY)
	test.That(t, err, test.ShouldBeNil)
	// Sobel x response on a ramp of slope 10 is 80 away from the borders
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			test.That(t, gX.At(y, x), test.ShouldAlmostEqual, 80., 1e-9)
			test.That(t, gY.At(y, x), test.ShouldAlmostEqual, 0., 1e-9)
		}
	}
}

func TestBlurPreservesConstant(t *testing.T) {
	m := mat.NewDense(10, 12, nil)
	for y := 0; y < 10; y++ {
		for x := 0; x < 12; x++ {
			m.Set(y, x, 42.)
		}
	}
	for _, k := range []Kernel{GetBlur3(), GetGaussian(1.0)} {
		kernel := k
		blurred, err := ConvolveGrayFloat64(m, &kernel)
		test.That(t, err, test.ShouldBeNil)
		for y := 0; y < 10; y++ {
			for x := 0; x < 12; x++ {
				test.That(t, blurred.At(y, x), test.ShouldAlmostEqual, 42., 1e-9)
			}
		}
	}
}

func TestPaddingFloat64EvenKernel(t *testing.T) {
	m := mat.NewDense(3, 3, nil)
	_, err := PaddingFloat64(m, image.Point{2, 2})
	test.That(t, err, test.ShouldNotBeNil)
}
