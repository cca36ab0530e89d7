package chessboard

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// subpixel refinement termination criteria, matching the usual corner
// refinement setup: at most 30 iterations or a shift below 1e-3 pixels.
const (
	subpixMaxIterations = 30
	subpixEpsilon       = 1e-3
)

// RefineCornerSubpixel refines an integer corner location to subpixel
// precision. Inside a window around the corner, the image gradient at every
// pixel is orthogonal to the vector from the true corner to that pixel; the
// refined corner is the least-squares solution of those constraints,
// iterated with a Gaussian-weighted window.
func RefineCornerSubpixel(lum *mat.Dense, corner r2.Point, window int) r2.Point {
	h, w := lum.Dims()
	c := corner
	sigma := float64(window) / 2.
	for iter := 0; iter < subpixMaxIterations; iter++ {
		cx, cy := int(math.Round(c.X)), int(math.Round(c.Y))
		if cx < window+1 || cx >= w-window-1 || cy < window+1 || cy >= h-window-1 {
			return c
		}
		var a11, a12, a22, b1, b2 float64
		for dy := -window; dy <= window; dy++ {
			for dx := -window; dx <= window; dx++ {
				x, y := cx+dx, cy+dy
				gx := (lum.At(y, x+1) - lum.At(y, x-1)) / 2.
				gy := (lum.At(y+1, x) - lum.At(y-1, x)) / 2.
				weight := math.Exp(-float64(dx*dx+dy*dy) / (2 * sigma * sigma))
				gxx := weight * gx * gx
				gyy := weight * gy * gy
				gxy := weight * gx * gy
				a11 += gxx
				a12 += gxy
				a22 += gyy
				b1 += gxx*float64(x) + gxy*float64(y)
				b2 += gxy*float64(x) + gyy*float64(y)
			}
		}
		det := a11*a22 - a12*a12
		if math.Abs(det) < 1e-12 {
			return c
		}
		next := r2.Point{
			X: (a22*b1 - a12*b2) / det,
			Y: (a11*b2 - a12*b1) / det,
		}
		shift := next.Sub(c).Norm()
		c = next
		if shift < subpixEpsilon {
			break
		}
	}
	return c
}

// RefineCornersSubpixel refines every corner, preserving order.
func RefineCornersSubpixel(lum *mat.Dense, corners []r2.Point, window int) []r2.Point {
	refined := make([]r2.Point, len(corners))
	for i, corner := range corners {
		refined[i] = RefineCornerSubpixel(lum, corner, window)
	}
	return refined
}
