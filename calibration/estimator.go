// Package calibration estimates chessboard poses from single cameras and
// chains them into the extrinsic transforms of a multi-camera rig.
package calibration

import (
	"context"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/iasrobolab/camera-calibration/camera"
	"github.com/iasrobolab/camera-calibration/chessboard"
	"github.com/iasrobolab/camera-calibration/spatialmath"
	"github.com/iasrobolab/camera-calibration/transform"
)

// CornerFinder locates the full inner corner grid of a chessboard in an
// image, row major from the top left. chessboard.Detector satisfies it.
type CornerFinder interface {
	FindCorners(img image.Image, spec chessboard.Spec) ([]r2.Point, error)
}

// FrameSink receives a copy of the captured frame annotated with the solved
// board axes. It is a side channel for visualization and never influences
// the numeric result.
type FrameSink func(img image.Image)

// EstimatorConfig configures a PoseEstimator. Zero-valued fields fall back
// to the defaults below.
type EstimatorConfig struct {
	Board chessboard.Spec

	// MaxAttempts bounds how many frames are tried before giving up with
	// ErrPatternNotFound. 0 picks DefaultMaxAttempts; a negative value
	// retries without bound, relying on the context for termination.
	MaxAttempts int
	// AttemptInterval is the pause between detection attempts.
	AttemptInterval time.Duration
	// Refine enables nonlinear reprojection refinement of the closed-form
	// pose solve.
	Refine bool

	Finder CornerFinder // nil defers to the camera itself, then a chessboard.Detector
	Clock  clock.Clock  // defaults to the wall clock
	Logger golog.Logger
	Sink   FrameSink
}

// DefaultMaxAttempts bounds the detection retry loop unless configured
// otherwise.
const DefaultMaxAttempts = 100

// PoseEstimator estimates the pose of a chessboard as seen by one camera.
type PoseEstimator struct {
	conf EstimatorConfig
}

// NewPoseEstimator validates the configuration and fills in defaults.
func NewPoseEstimator(conf EstimatorConfig) (*PoseEstimator, error) {
	if err := conf.Board.CheckValid(); err != nil {
		return nil, err
	}
	if conf.MaxAttempts == 0 {
		conf.MaxAttempts = DefaultMaxAttempts
	}
	if conf.Clock == nil {
		conf.Clock = clock.New()
	}
	if conf.Logger == nil {
		conf.Logger = golog.NewLogger("pose-estimator")
	}
	return &PoseEstimator{conf: conf}, nil
}

// Estimate captures frames from the camera until the chessboard is found and
// returns the pose of the chessboard frame expressed in the camera frame.
// Camera failures propagate immediately; a frame without a visible board, or
// one whose corners are degenerate, is retried until MaxAttempts runs out.
func (pe *PoseEstimator) Estimate(ctx context.Context, cam camera.Camera) (*spatialmath.Pose, error) {
	intrinsics, err := cam.GetIntrinsics(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "cannot estimate a pose without intrinsics")
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	objectPoints := pe.conf.Board.ObjectPoints()
	finder := pe.finderFor(cam)

	for attempt := 1; pe.conf.MaxAttempts < 0 || attempt <= pe.conf.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := cam.GetRGB(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "camera failed to produce a frame")
		}
		pose, err := pe.solveFrame(finder, img, objectPoints, intrinsics)
		if err == nil {
			return pose, nil
		}
		if !errors.Is(err, chessboard.ErrNoChessboardFound) &&
			!errors.Is(err, transform.ErrDegenerateObservation) {
			return nil, err
		}
		pe.conf.Logger.Debugw("chessboard not found, retrying", "attempt", attempt, "error", err)
		if err := pe.wait(ctx); err != nil {
			return nil, err
		}
	}
	return nil, errors.Wrapf(ErrPatternNotFound, "gave up after %d attempts", pe.conf.MaxAttempts)
}

// finderFor resolves which corner finder serves a camera. A configured
// Finder always wins; otherwise a camera that can locate its own corners
// (synthetic cameras do) is used directly, and everything else gets the
// image detector.
func (pe *PoseEstimator) finderFor(cam camera.Camera) CornerFinder {
	if pe.conf.Finder != nil {
		return pe.conf.Finder
	}
	if finder, ok := cam.(CornerFinder); ok {
		return finder
	}
	return chessboard.NewDetector(chessboard.DefaultDetectionConf)
}

func (pe *PoseEstimator) solveFrame(
	finder CornerFinder,
	img image.Image,
	objectPoints []r3.Vector,
	intrinsics *transform.PinholeCameraIntrinsics,
) (*spatialmath.Pose, error) {
	corners, err := finder.FindCorners(img, pe.conf.Board)
	if err != nil {
		return nil, err
	}
	pose, err := transform.SolvePlanarPnP(objectPoints, corners, intrinsics)
	if err != nil {
		return nil, err
	}
	if pe.conf.Refine {
		pose, err = transform.RefinePlanarPnP(pose, objectPoints, corners, intrinsics)
		if err != nil {
			return nil, err
		}
	}
	if pe.conf.Sink != nil {
		pe.conf.Sink(DrawPoseAxes(img, intrinsics, pose, pe.conf.Board))
	}
	return pose, nil
}

func (pe *PoseEstimator) wait(ctx context.Context) error {
	if pe.conf.AttemptInterval <= 0 {
		return ctx.Err()
	}
	timer := pe.conf.Clock.Timer(pe.conf.AttemptInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
