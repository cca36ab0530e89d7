// Package chessboard locates calibration chessboards in images: the pattern
// specification, saddle-point corner detection, grid ordering and subpixel
// corner refinement.
package chessboard

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// mm2m is the scaling factor from millimeters to meters.
const mm2m = 1e-3

// ErrNoChessboardFound is returned when the pattern cannot be located in a frame.
var ErrNoChessboardFound = errors.New("no chessboard found in image")

// Spec describes the calibration pattern: the inner corner grid dimensions and
// the side length of one square in millimeters.
type Spec struct {
	Columns      int     `json:"columns"`
	Rows         int     `json:"rows"`
	SquareSizeMM float64 `json:"square_size_mm"`
}

// CheckValid checks if the fields of the Spec have valid inputs.
func (s Spec) CheckValid() error {
	if s.Columns < 2 || s.Rows < 2 {
		return errors.Errorf("chessboard needs at least 2x2 inner corners, got %dx%d", s.Columns, s.Rows)
	}
	if s.SquareSizeMM <= 0 {
		return errors.Errorf("invalid square size %v mm", s.SquareSizeMM)
	}
	return nil
}

// CornerCount returns the total number of inner corners.
func (s Spec) CornerCount() int {
	return s.Columns * s.Rows
}

// ObjectPoints returns the ideal corner grid on the z=0 plane in meters, row
// major from the top-left corner, matching the order detected corners are
// reported in.
func (s Spec) ObjectPoints() []r3.Vector {
	pts := make([]r3.Vector, 0, s.CornerCount())
	side := s.SquareSizeMM * mm2m
	for y := 0; y < s.Rows; y++ {
		for x := 0; x < s.Columns; x++ {
			pts = append(pts, r3.Vector{X: float64(x) * side, Y: float64(y) * side})
		}
	}
	return pts
}
