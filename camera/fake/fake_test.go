package fake

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/iasrobolab/camera-calibration/chessboard"
	"github.com/iasrobolab/camera-calibration/spatialmath"
	"github.com/iasrobolab/camera-calibration/transform"
)

var (
	testSpec       = chessboard.Spec{Columns: 7, Rows: 5, SquareSizeMM: 30}
	testIntrinsics = &transform.PinholeCameraIntrinsics{Fx: 800, Fy: 790, Ppx: 320, Ppy: 240}
)

func testPose() *spatialmath.Pose {
	return spatialmath.NewPose(
		spatialmath.NewIdentityRotationMatrix(),
		r3.Vector{X: -0.09, Y: -0.06, Z: 0.6},
	)
}

func TestFakeCameraFrames(t *testing.T) {
	cam := NewCamera(testIntrinsics, testSpec, testPose())
	img, err := cam.GetRGB(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 640)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 480)
	test.That(t, cam.RGBCalls(), test.ShouldEqual, 1)

	params, err := cam.GetIntrinsics(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params, test.ShouldEqual, testIntrinsics)
}

func TestFakeCameraOracleCorners(t *testing.T) {
	pose := testPose()
	cam := NewCamera(testIntrinsics, testSpec, pose)
	corners, err := cam.FindCorners(nil, testSpec)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(corners), test.ShouldEqual, testSpec.CornerCount())

	want := testIntrinsics.ProjectPoints(testSpec.ObjectPoints(), pose)
	for i := range want {
		test.That(t, corners[i].X, test.ShouldAlmostEqual, want[i].X)
		test.That(t, corners[i].Y, test.ShouldAlmostEqual, want[i].Y)
	}

	_, err = cam.FindCorners(nil, chessboard.Spec{Columns: 4, Rows: 3, SquareSizeMM: 30})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFakeCameraErrorInjection(t *testing.T) {
	cam := NewCamera(testIntrinsics, testSpec, testPose())
	sentinel := errors.New("boom")
	cam.RGBErr = sentinel
	_, err := cam.GetRGB(context.Background())
	test.That(t, errors.Is(err, sentinel), test.ShouldBeTrue)
	test.That(t, cam.RGBCalls(), test.ShouldEqual, 1)
}

func TestFakeCameraPoseSequence(t *testing.T) {
	first := testPose()
	second := spatialmath.NewPose(
		spatialmath.NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, 0.1),
		r3.Vector{X: -0.09, Y: -0.06, Z: 0.7},
	)
	cam := NewCamera(testIntrinsics, testSpec, nil)
	cam.PoseSequence = []*spatialmath.Pose{first, second}

	c1, err := cam.FindCorners(nil, testSpec)
	test.That(t, err, test.ShouldBeNil)
	c2, err := cam.FindCorners(nil, testSpec)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c1[0].X == c2[0].X, test.ShouldBeFalse)
}
