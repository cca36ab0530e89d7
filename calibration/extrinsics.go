package calibration

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/iasrobolab/camera-calibration/camera"
	"github.com/iasrobolab/camera-calibration/spatialmath"
)

// DefaultWarmupFrames is how many frames are captured and discarded per
// camera before any pose is estimated, letting auto-exposure settle.
const DefaultWarmupFrames = 10

// CalibrationConfig configures CalibrateExtrinsics. Zero-valued fields fall
// back to the defaults.
type CalibrationConfig struct {
	Estimator EstimatorConfig

	// SampleCount is how many chessboard poses are estimated per camera and
	// averaged before chaining. Defaults to 1.
	SampleCount int
	// WarmupFrames is how many frames to discard per camera before
	// estimating. Defaults to DefaultWarmupFrames; a negative value skips
	// the warm-up entirely.
	WarmupFrames int

	Logger golog.Logger
}

// Extrinsic is the calibrated pose of one camera expressed in the reference
// camera frame.
type Extrinsic struct {
	// Camera is the calibrated camera's name.
	Camera string
	// RefHCam maps points in the camera's frame into the reference camera's
	// frame.
	RefHCam *spatialmath.RigidTransform
}

// CalibrateExtrinsics computes the pose of every camera relative to the
// first one by having all cameras observe the same static chessboard. For
// each camera the board pose is estimated SampleCount times and averaged;
// with H_i the averaged board-to-camera transform of camera i, camera i's
// pose in the reference frame is H_0 * inverse(H_i). Results are returned
// for cameras[1:], in input order.
func CalibrateExtrinsics(
	ctx context.Context,
	cameras []camera.Named,
	conf CalibrationConfig,
) ([]Extrinsic, error) {
	if len(cameras) < 2 {
		return nil, errors.Wrapf(ErrNeedTwoCameras, "got %d", len(cameras))
	}
	if conf.SampleCount <= 0 {
		conf.SampleCount = 1
	}
	if conf.WarmupFrames == 0 {
		conf.WarmupFrames = DefaultWarmupFrames
	}
	if conf.Logger == nil {
		conf.Logger = golog.NewLogger("extrinsic-calibration")
	}
	if conf.Estimator.Logger == nil {
		conf.Estimator.Logger = conf.Logger
	}
	estimator, err := NewPoseEstimator(conf.Estimator)
	if err != nil {
		return nil, err
	}

	for _, cam := range cameras {
		if err := warmup(ctx, cam, conf.WarmupFrames); err != nil {
			return nil, err
		}
	}

	samples := make([][]*spatialmath.Pose, len(cameras))
	for s := 0; s < conf.SampleCount; s++ {
		conf.Logger.Infow("sampling chessboard poses", "sample", s+1, "of", conf.SampleCount)
		for i, cam := range cameras {
			pose, err := estimator.Estimate(ctx, cam.Camera)
			if err != nil {
				return nil, errors.Wrapf(err, "camera %q", cam.Name)
			}
			samples[i] = append(samples[i], pose)
		}
	}

	boardInCam := make([]*spatialmath.RigidTransform, len(cameras))
	for i, cam := range cameras {
		mean, err := spatialmath.MeanPose(samples[i])
		if err != nil {
			return nil, errors.Wrapf(err, "camera %q", cam.Name)
		}
		conf.Logger.Infow("aggregated board pose",
			"camera", cam.Name,
			"rotationDet", mean.Rotation.Det(),
			"translation", mean.Translation,
		)
		boardInCam[i] = spatialmath.NewRigidTransformFromPose(mean)
	}

	ref := boardInCam[0]
	results := make([]Extrinsic, 0, len(cameras)-1)
	for i := 1; i < len(cameras); i++ {
		results = append(results, Extrinsic{
			Camera:  cameras[i].Name,
			RefHCam: ref.Compose(boardInCam[i].Inverse()),
		})
	}
	return results, nil
}

func warmup(ctx context.Context, cam camera.Named, frames int) error {
	for i := 0; i < frames; i++ {
		if _, err := cam.Camera.GetRGB(ctx); err != nil {
			return errors.Wrapf(err, "warm-up of camera %q", cam.Name)
		}
	}
	return nil
}
