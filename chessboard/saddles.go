package chessboard

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/iasrobolab/camera-calibration/rimage"
)

// SaddleConfiguration stores the parameters used to turn the Hessian
// determinant image into a set of candidate corner points.
type SaddleConfiguration struct {
	Sigma             float64 `json:"sigma"`          // Gaussian blur applied before differentiation
	NMSWindowSize     int     `json:"win-size"`       // window size for non-maximum suppression
	RelativeThreshold float64 `json:"rel-threshold"`  // keep maxima above this fraction of the strongest response
	RingRadius        float64 `json:"ring-radius"`    // radius of the intensity ring used to reject non-saddle corners
	RingTransitions   int     `json:"ring-crossings"` // sign transitions around the ring required of a saddle
}

// DefaultSaddleConf stores the default saddle detection parameters.
var DefaultSaddleConf = SaddleConfiguration{
	Sigma:             1.0,
	NMSWindowSize:     8,
	RelativeThreshold: 0.1,
	RingRadius:        5.0,
	RingTransitions:   4,
}

// computePixelWiseHessianDeterminant computes hessian components for each pixel
// and returns a *mat.Dense containing the value of the determinant of the
// Hessian for each pixel. The sign and value of the determinant of the Hessian
// gives the location of saddle points.
func computePixelWiseHessianDeterminant(img *mat.Dense) (*mat.Dense, error) {
	nRows, nCols := img.Dims()
	sobelX := rimage.GetSobelX()
	sobelY := rimage.GetSobelY()
	gX, err := rimage.ConvolveGrayFloat64(img, &sobelX)
	if err != nil {
		return nil, err
	}
	gY, err := rimage.ConvolveGrayFloat64(img, &sobelY)
	if err != nil {
		return nil, err
	}
	gXX, err := rimage.ConvolveGrayFloat64(gX, &sobelX)
	if err != nil {
		return nil, err
	}
	gYY, err := rimage.ConvolveGrayFloat64(gY, &sobelY)
	if err != nil {
		return nil, err
	}
	gXY, err := rimage.ConvolveGrayFloat64(gX, &sobelY)
	if err != nil {
		return nil, err
	}
	m1 := mat.NewDense(nRows, nCols, nil)
	m2 := mat.NewDense(nRows, nCols, nil)
	out := mat.NewDense(nRows, nCols, nil)
	m1.MulElem(gXX, gYY)
	m2.MulElem(gXY, gXY)
	out.Sub(m1, m2)
	return out, nil
}

// isLocalMaximum reports whether (x, y) holds the maximum of m inside the
// given window.
func isLocalMaximum(m *mat.Dense, x, y, winSize int) bool {
	h, w := m.Dims()
	v := m.At(y, x)
	ta := int(math.Max(0, float64(y-winSize)))
	tb := int(math.Min(float64(h), float64(y+winSize+1)))
	tc := int(math.Max(0, float64(x-winSize)))
	td := int(math.Min(float64(w), float64(x+winSize+1)))
	for i := ta; i < tb; i++ {
		for j := tc; j < td; j++ {
			if m.At(i, j) > v {
				return false
			}
			// break plateau ties in scan order so one corner yields one point
			if m.At(i, j) == v && (i < y || (i == y && j < x)) {
				return false
			}
		}
	}
	return true
}

// isSaddleRing samples a ring of pixels around the candidate and counts the
// sign transitions of the intensity relative to the ring mean. A chessboard
// X-corner alternates dark/light/dark/light, giving 4 transitions; edge points
// and single-square corners give 2 and are rejected.
func isSaddleRing(lum *mat.Dense, x, y int, conf *SaddleConfiguration) bool {
	h, w := lum.Dims()
	const samples = 16
	values := make([]float64, samples)
	mean := 0.
	for i := 0; i < samples; i++ {
		theta := 2 * math.Pi * float64(i) / samples
		sx := int(math.Round(float64(x) + conf.RingRadius*math.Cos(theta)))
		sy := int(math.Round(float64(y) + conf.RingRadius*math.Sin(theta)))
		if sx < 0 || sx >= w || sy < 0 || sy >= h {
			return false
		}
		values[i] = lum.At(sy, sx)
		mean += values[i]
	}
	mean /= samples
	transitions := 0
	for i := 0; i < samples; i++ {
		cur := values[i] >= mean
		next := values[(i+1)%samples] >= mean
		if cur != next {
			transitions++
		}
	}
	return transitions == conf.RingTransitions
}

// GetSaddlePoints returns the candidate chessboard corner points of a
// luminance image: the local maxima of the negated Hessian determinant that
// survive thresholding, non-maximum suppression and the ring test.
func GetSaddlePoints(lum *mat.Dense, conf *SaddleConfiguration) ([]r2.Point, error) {
	blurKernel := rimage.GetGaussian(conf.Sigma)
	blurred, err := rimage.ConvolveGrayFloat64(lum, &blurKernel)
	if err != nil {
		return nil, err
	}
	hessian, err := computePixelWiseHessianDeterminant(blurred)
	if err != nil {
		return nil, err
	}
	// saddle points are points where the determinant of the Hessian is < 0;
	// for readability work with the negated determinant
	hessian.Scale(-1.0, hessian)
	decFilt := func(r, c int, v float64) float64 {
		if v < 0 {
			return 0.
		}
		return v
	}
	saddleMap := mat.NewDense(hessian.RawMatrix().Rows, hessian.RawMatrix().Cols, nil)
	saddleMap.Apply(decFilt, hessian)

	maxResponse := mat.Max(saddleMap)
	if maxResponse <= 0 {
		return nil, ErrNoChessboardFound
	}
	thresh := conf.RelativeThreshold * maxResponse

	h, w := saddleMap.Dims()
	points := make([]r2.Point, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if saddleMap.At(y, x) < thresh {
				continue
			}
			if !isLocalMaximum(saddleMap, x, y, conf.NMSWindowSize) {
				continue
			}
			if !isSaddleRing(blurred, x, y, conf) {
				continue
			}
			points = append(points, r2.Point{X: float64(x), Y: float64(y)})
		}
	}
	return points, nil
}
