package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateObservation is returned when the observed points do not
// constrain a solution, e.g. when they are collinear.
var ErrDegenerateObservation = errors.New("degenerate observation, points do not constrain a pose")

// Homography is a 3x3 matrix used to transform a plane seen from one
// perspective to another perspective. Indices are [row][column].
type Homography [3][3]float64

// At returns the element of the homography at the given row and column.
func (h *Homography) At(row, col int) float64 {
	return h[row][col]
}

// Apply applies the homography to the given point.
func (h *Homography) Apply(pt r2.Point) r2.Point {
	x := h.At(0, 0)*pt.X + h.At(0, 1)*pt.Y + h.At(0, 2)
	y := h.At(1, 0)*pt.X + h.At(1, 1)*pt.Y + h.At(1, 2)
	z := h.At(2, 0)*pt.X + h.At(2, 1)*pt.Y + h.At(2, 2)
	return r2.Point{X: x / z, Y: y / z}
}

// Col returns the given column of the homography.
func (h *Homography) Col(col int) [3]float64 {
	return [3]float64{h[0][col], h[1][col], h[2][col]}
}

// similarityNormalization returns the similarity transform that moves the
// centroid of the points to the origin and their mean distance to sqrt(2),
// along with the transformed points. This conditioning keeps the DLT system
// well behaved.
func similarityNormalization(pts []r2.Point) (*mat.Dense, []r2.Point) {
	var cx, cy float64
	for _, pt := range pts {
		cx += pt.X
		cy += pt.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))
	var meanDist float64
	for _, pt := range pts {
		meanDist += math.Hypot(pt.X-cx, pt.Y-cy)
	}
	meanDist /= float64(len(pts))
	scale := 1.
	if meanDist > 0 {
		scale = math.Sqrt2 / meanDist
	}
	t := mat.NewDense(3, 3, []float64{
		scale, 0, -scale * cx,
		0, scale, -scale * cy,
		0, 0, 1,
	})
	normalized := make([]r2.Point, len(pts))
	for i, pt := range pts {
		normalized[i] = r2.Point{X: scale * (pt.X - cx), Y: scale * (pt.Y - cy)}
	}
	return t, normalized
}

// EstimateHomography estimates the homography mapping src points to dst points
// with a normalized direct linear transform. At least 4 point pairs are
// required; ErrDegenerateObservation is returned when the correspondences do
// not determine a unique homography.
func EstimateHomography(src, dst []r2.Point) (*Homography, error) {
	if len(src) != len(dst) {
		return nil, errors.Errorf("point sets have different sizes, %d != %d", len(src), len(dst))
	}
	if len(src) < 4 {
		return nil, errors.Errorf("need at least 4 point pairs to estimate a homography, got %d", len(src))
	}
	tSrc, nSrc := similarityNormalization(src)
	tDst, nDst := similarityNormalization(dst)

	n := len(src)
	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		x, y := nSrc[i].X, nSrc[i].Y
		u, v := nDst[i].X, nDst[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize DLT system")
	}
	values := svd.Values(nil)
	// with a rank-deficient system (collinear points) more than one null
	// direction exists and the homography is not unique
	if values[7] <= 1e-9*values[0] {
		return nil, ErrDegenerateObservation
	}
	var v mat.Dense
	svd.VTo(&v)
	hn := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			hn.Set(i, j, v.At(3*i+j, 8))
		}
	}

	// denormalize: H = inv(tDst) * Hn * tSrc
	var tDstInv mat.Dense
	if err := tDstInv.Inverse(tDst); err != nil {
		return nil, errors.Wrap(err, "failed to invert normalization transform")
	}
	var tmp, hDense mat.Dense
	tmp.Mul(hn, tSrc)
	hDense.Mul(&tDstInv, &tmp)

	out := &Homography{}
	norm := 0.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			norm += hDense.At(i, j) * hDense.At(i, j)
		}
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil, ErrDegenerateObservation
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = hDense.At(i, j) / norm
		}
	}
	return out, nil
}
