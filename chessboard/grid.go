package chessboard

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/iasrobolab/camera-calibration/transform"
)

// getMinSaddleDistance returns the saddle point that minimizes the distance
// with pt, as well as this minimum distance.
func getMinSaddleDistance(saddlePoints []r2.Point, pt r2.Point) (int, float64) {
	bestDist := math.Inf(1)
	bestIdx := -1
	for i, saddlePt := range saddlePoints {
		diff := pt.Sub(saddlePt)
		dist := diff.Norm()
		if dist < bestDist {
			bestDist = dist
			bestIdx = i
		}
	}
	return bestIdx, bestDist
}

// quadExtremes picks the most top-left, top-right, bottom-right and
// bottom-left candidates, the support points for the grid homography fit.
func quadExtremes(pts []r2.Point) (tl, tr, br, bl r2.Point) {
	tl, tr, br, bl = pts[0], pts[0], pts[0], pts[0]
	for _, pt := range pts {
		if pt.X+pt.Y < tl.X+tl.Y {
			tl = pt
		}
		if pt.X+pt.Y > br.X+br.Y {
			br = pt
		}
		if pt.X-pt.Y > tr.X-tr.Y {
			tr = pt
		}
		if pt.X-pt.Y < bl.X-bl.Y {
			bl = pt
		}
	}
	return tl, tr, br, bl
}

// gridFit is one candidate assignment of saddle points to the corner grid.
type gridFit struct {
	corners   []r2.Point
	meanError float64
}

// fitGridOrientation fits a homography from the unit corner grid to the
// extremal quad and snaps every predicted grid position to its nearest saddle
// point. unitCoord maps an output grid index to unit-grid coordinates, which
// lets the same routine try both board orientations.
func fitGridOrientation(
	saddles []r2.Point,
	cols, rows int,
	quadSrc []r2.Point,
	quadDst []r2.Point,
	unitCoord func(x, y int) r2.Point,
	maxSnapRatio float64,
) (*gridFit, error) {
	h, err := transform.EstimateHomography(quadSrc, quadDst)
	if err != nil {
		return nil, err
	}
	// reject snaps farther than a fraction of the predicted corner spacing
	spacing := h.Apply(r2.Point{X: 1}).Sub(h.Apply(r2.Point{})).Norm()
	if other := h.Apply(r2.Point{Y: 1}).Sub(h.Apply(r2.Point{})).Norm(); other < spacing {
		spacing = other
	}
	maxSnap := maxSnapRatio * spacing

	used := make([]bool, len(saddles))
	corners := make([]r2.Point, 0, cols*rows)
	totalErr := 0.
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			predicted := h.Apply(unitCoord(x, y))
			idx, dist := getMinSaddleDistance(saddles, predicted)
			if idx < 0 || dist > maxSnap || used[idx] {
				return nil, errors.Wrapf(ErrNoChessboardFound,
					"grid position (%d,%d) has no saddle point within %.1f px", x, y, maxSnap)
			}
			used[idx] = true
			corners = append(corners, saddles[idx])
			totalErr += dist
		}
	}
	return &gridFit{corners: corners, meanError: totalErr / float64(cols*rows)}, nil
}

// orderGridCorners assigns the detected saddle points to a cols x rows grid,
// returned row major from the top-left corner. Both board orientations are
// tried and the one with the lower snap error wins. The 180 degree ambiguity
// of a chessboard is not resolved; the same physical corner ordering is used
// for every camera observing the same static board.
func orderGridCorners(saddles []r2.Point, cols, rows int, maxSnapRatio float64) ([]r2.Point, error) {
	if len(saddles) < cols*rows {
		return nil, errors.Wrapf(ErrNoChessboardFound,
			"found %d candidate corners, need %d", len(saddles), cols*rows)
	}
	tl, tr, br, bl := quadExtremes(saddles)
	quadDst := []r2.Point{tl, tr, br, bl}

	c, r := float64(cols-1), float64(rows-1)
	var best *gridFit
	// orientation with the board columns running left to right
	fit, err := fitGridOrientation(saddles, cols, rows,
		[]r2.Point{{X: 0, Y: 0}, {X: c, Y: 0}, {X: c, Y: r}, {X: 0, Y: r}}, quadDst,
		func(x, y int) r2.Point { return r2.Point{X: float64(x), Y: float64(y)} },
		maxSnapRatio,
	)
	firstErr := err
	if err == nil {
		best = fit
	}
	// transposed orientation
	fit, err = fitGridOrientation(saddles, cols, rows,
		[]r2.Point{{X: 0, Y: 0}, {X: r, Y: 0}, {X: r, Y: c}, {X: 0, Y: c}}, quadDst,
		func(x, y int) r2.Point { return r2.Point{X: float64(y), Y: float64(x)} },
		maxSnapRatio,
	)
	if err == nil && (best == nil || fit.meanError < best.meanError) {
		best = fit
	}
	if best == nil {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, err
	}
	return best.corners, nil
}
