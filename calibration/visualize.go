package calibration

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r3"

	"github.com/iasrobolab/camera-calibration/chessboard"
	"github.com/iasrobolab/camera-calibration/spatialmath"
	"github.com/iasrobolab/camera-calibration/transform"
)

// DrawPoseAxes returns a copy of the frame with the solved board frame drawn
// at the grid origin: X in red, Y in green, Z in blue, each three square
// lengths long. The Z axis is drawn toward the camera so it stays visible on
// the board surface.
func DrawPoseAxes(
	img image.Image,
	intrinsics *transform.PinholeCameraIntrinsics,
	pose *spatialmath.Pose,
	board chessboard.Spec,
) image.Image {
	axisLen := 3 * board.SquareSizeMM * 1e-3
	pts := intrinsics.ProjectPoints([]r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: axisLen, Y: 0, Z: 0},
		{X: 0, Y: axisLen, Z: 0},
		{X: 0, Y: 0, Z: -axisLen},
	}, pose)

	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(3)
	colors := [][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, c := range colors {
		dc.SetRGB(c[0], c[1], c[2])
		dc.DrawLine(pts[0].X, pts[0].Y, pts[i+1].X, pts[i+1].Y)
		dc.Stroke()
	}
	dc.SetRGB(1, 0, 1)
	dc.DrawCircle(pts[0].X, pts[0].Y, 4)
	dc.Fill()
	return dc.Image()
}
