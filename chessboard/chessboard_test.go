package chessboard

import (
	"testing"

	"go.viam.com/test"
)

func TestSpecCheckValid(t *testing.T) {
	test.That(t, Spec{Columns: 7, Rows: 5, SquareSizeMM: 30}.CheckValid(), test.ShouldBeNil)
	test.That(t, Spec{Columns: 1, Rows: 5, SquareSizeMM: 30}.CheckValid(), test.ShouldNotBeNil)
	test.That(t, Spec{Columns: 7, Rows: 5, SquareSizeMM: 0}.CheckValid(), test.ShouldNotBeNil)
	test.That(t, Spec{Columns: 7, Rows: 5, SquareSizeMM: -3}.CheckValid(), test.ShouldNotBeNil)
}

func TestObjectPoints(t *testing.T) {
	spec := Spec{Columns: 3, Rows: 2, SquareSizeMM: 25}
	pts := spec.ObjectPoints()
	test.That(t, len(pts), test.ShouldEqual, spec.CornerCount())
	test.That(t, len(pts), test.ShouldEqual, 6)
	// row major, z = 0, millimeters converted to meters
	test.That(t, pts[0].X, test.ShouldAlmostEqual, 0.)
	test.That(t, pts[1].X, test.ShouldAlmostEqual, 0.025)
	test.That(t, pts[2].X, test.ShouldAlmostEqual, 0.05)
	test.That(t, pts[3].X, test.ShouldAlmostEqual, 0.)
	test.That(t, pts[3].Y, test.ShouldAlmostEqual, 0.025)
	for _, pt := range pts {
		test.That(t, pt.Z, test.ShouldEqual, 0.)
	}
}
