package calibration

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/iasrobolab/camera-calibration/camera"
	"github.com/iasrobolab/camera-calibration/camera/fake"
	"github.com/iasrobolab/camera-calibration/spatialmath"
	"github.com/iasrobolab/camera-calibration/utils"
)

func poseFromTransform(t *spatialmath.RigidTransform) *spatialmath.Pose {
	return spatialmath.NewPose(t.Rotation(), t.Translation())
}

// testRig builds fake cameras at the given world poses (camera frame to
// world frame), all watching a chessboard fixed in the world. Each camera's
// ground-truth board pose is worldPose^-1 * boardWorld.
func testRig(worldPoses []*spatialmath.RigidTransform) []camera.Named {
	boardWorld := spatialmath.NewRigidTransformFromPose(boardInFront())
	cams := make([]camera.Named, len(worldPoses))
	for i, wp := range worldPoses {
		boardInCam := wp.Inverse().Compose(boardWorld)
		cams[i] = camera.Named{
			Name:   "cam" + string(rune('0'+i)),
			Camera: fake.NewCamera(testIntrinsics, testBoard, poseFromTransform(boardInCam)),
		}
	}
	return cams
}

func threeCameraWorld() []*spatialmath.RigidTransform {
	return []*spatialmath.RigidTransform{
		spatialmath.NewIdentityRigidTransform(),
		spatialmath.NewRigidTransform(
			spatialmath.NewIdentityRotationMatrix(),
			r3.Vector{X: 0.1},
		),
		spatialmath.NewRigidTransform(
			spatialmath.NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, utils.DegToRad(90)),
			r3.Vector{Y: 0.15},
		),
	}
}

func TestCalibrateNeedsTwoCameras(t *testing.T) {
	cams := testRig(threeCameraWorld()[:1])
	_, err := CalibrateExtrinsics(context.Background(), cams, CalibrationConfig{
		Estimator: EstimatorConfig{Board: testBoard},
		Logger:    golog.NewTestLogger(t),
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrNeedTwoCameras), test.ShouldBeTrue)
	// the input check happens before any frame is captured
	test.That(t, cams[0].Camera.(*fake.Camera).RGBCalls(), test.ShouldEqual, 0)
}

func TestCalibrateGroundTruth(t *testing.T) {
	world := threeCameraWorld()
	cams := testRig(world)
	results, err := CalibrateExtrinsics(context.Background(), cams, CalibrationConfig{
		Estimator:   EstimatorConfig{Board: testBoard},
		SampleCount: 2,
		Logger:      golog.NewTestLogger(t),
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, len(cams)-1)

	// with the reference camera at the world origin, each camera's pose in
	// the reference frame is its world pose
	for i, res := range results {
		test.That(t, res.Camera, test.ShouldEqual, cams[i+1].Name)
		test.That(t, res.RefHCam.AlmostEqual(world[i+1], 1e-6), test.ShouldBeTrue)
	}

	// warm-up frames plus one frame per sample
	for _, cam := range cams {
		test.That(t, cam.Camera.(*fake.Camera).RGBCalls(), test.ShouldEqual, DefaultWarmupFrames+2)
	}
}

func TestCalibrateSingleSampleMatchesDirectEstimate(t *testing.T) {
	world := threeCameraWorld()[:2]
	cams := testRig(world)
	results, err := CalibrateExtrinsics(context.Background(), cams, CalibrationConfig{
		Estimator:    EstimatorConfig{Board: testBoard},
		SampleCount:  1,
		WarmupFrames: -1,
		Logger:       golog.NewTestLogger(t),
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, 1)

	// recompute from single direct estimates
	estimator, err := NewPoseEstimator(EstimatorConfig{Board: testBoard, Logger: golog.NewTestLogger(t)})
	test.That(t, err, test.ShouldBeNil)
	pose0, err := estimator.Estimate(context.Background(), cams[0].Camera)
	test.That(t, err, test.ShouldBeNil)
	pose1, err := estimator.Estimate(context.Background(), cams[1].Camera)
	test.That(t, err, test.ShouldBeNil)
	direct := spatialmath.NewRigidTransformFromPose(pose0).
		Compose(spatialmath.NewRigidTransformFromPose(pose1).Inverse())
	test.That(t, results[0].RefHCam.AlmostEqual(direct, 1e-9), test.ShouldBeTrue)

	// warm-up disabled, so exactly one frame per camera for the calibration
	test.That(t, cams[0].Camera.(*fake.Camera).RGBCalls(), test.ShouldEqual, 2)
}

func TestCalibrateOrderSwapPermutesOutput(t *testing.T) {
	world := threeCameraWorld()
	cams := testRig(world)
	swapped := []camera.Named{cams[1], cams[0], cams[2]}
	results, err := CalibrateExtrinsics(context.Background(), swapped, CalibrationConfig{
		Estimator: EstimatorConfig{Board: testBoard},
		Logger:    golog.NewTestLogger(t),
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, 2)
	test.That(t, results[0].Camera, test.ShouldEqual, "cam0")
	test.That(t, results[1].Camera, test.ShouldEqual, "cam2")

	// the reference is now cam1, so cam0's calibrated pose is
	// world1^-1 * world0
	want0 := world[1].Inverse().Compose(world[0])
	want2 := world[1].Inverse().Compose(world[2])
	test.That(t, results[0].RefHCam.AlmostEqual(want0, 1e-6), test.ShouldBeTrue)
	test.That(t, results[1].RefHCam.AlmostEqual(want2, 1e-6), test.ShouldBeTrue)
}

func TestCalibrateAveragesSamples(t *testing.T) {
	world := threeCameraWorld()[:2]
	cams := testRig(world)

	// feed the second camera poses perturbed symmetrically about its true
	// board pose; the quaternion mean cancels the perturbation exactly
	cam1 := cams[1].Camera.(*fake.Camera)
	truth := cam1.BoardPose
	wobble := utils.DegToRad(5)
	cam1.PoseSequence = []*spatialmath.Pose{
		spatialmath.NewPose(
			spatialmath.MatMul(truth.Rotation, spatialmath.NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, wobble)),
			truth.Translation,
		),
		spatialmath.NewPose(
			spatialmath.MatMul(truth.Rotation, spatialmath.NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, -wobble)),
			truth.Translation,
		),
	}

	results, err := CalibrateExtrinsics(context.Background(), cams, CalibrationConfig{
		Estimator:    EstimatorConfig{Board: testBoard},
		SampleCount:  2,
		WarmupFrames: -1,
		Logger:       golog.NewTestLogger(t),
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results[0].RefHCam.AlmostEqual(world[1], 1e-6), test.ShouldBeTrue)
	// the averaged rotation stays on the rotation group
	test.That(t, results[0].RefHCam.Rotation().Det(), test.ShouldAlmostEqual, 1, 1e-9)
}

func TestCalibrateWarmupFailurePropagates(t *testing.T) {
	cams := testRig(threeCameraWorld()[:2])
	sentinel := errors.New("no signal")
	cams[1].Camera.(*fake.Camera).RGBErr = sentinel
	_, err := CalibrateExtrinsics(context.Background(), cams, CalibrationConfig{
		Estimator: EstimatorConfig{Board: testBoard},
		Logger:    golog.NewTestLogger(t),
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, sentinel), test.ShouldBeTrue)
}
