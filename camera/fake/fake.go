// Package fake provides a synthetic camera observing a chessboard with a
// known ground-truth pose. Frames are rendered from the configured pose, and
// the camera doubles as an exact corner source, so pipelines built on it can
// be checked against the truth to numeric precision.
package fake

import (
	"context"
	"image"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/iasrobolab/camera-calibration/chessboard"
	"github.com/iasrobolab/camera-calibration/spatialmath"
	"github.com/iasrobolab/camera-calibration/transform"
)

// Camera is a synthetic camera.Camera implementation. BoardPose is the pose
// of the chessboard frame expressed in this camera's frame. When PoseSequence
// is non-empty it overrides BoardPose, advancing one pose per corner query,
// which lets tests feed distinct samples into pose averaging.
type Camera struct {
	Intrinsics   *transform.PinholeCameraIntrinsics
	Spec         chessboard.Spec
	BoardPose    *spatialmath.Pose
	PoseSequence []*spatialmath.Pose
	Width        int
	Height       int

	// RGBErr, when set, is returned by every GetRGB call. It simulates a
	// device failure.
	RGBErr error

	mu       sync.Mutex
	rgbCalls int
	poseIdx  int
}

// NewCamera returns a fake camera observing a chessboard at the given
// ground-truth pose.
func NewCamera(
	intrinsics *transform.PinholeCameraIntrinsics,
	spec chessboard.Spec,
	boardPose *spatialmath.Pose,
) *Camera {
	return &Camera{
		Intrinsics: intrinsics,
		Spec:       spec,
		BoardPose:  boardPose,
		Width:      640,
		Height:     480,
	}
}

// GetRGB renders a frame with the projected chessboard corners marked. It
// fails with RGBErr when one is configured.
func (c *Camera) GetRGB(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.rgbCalls++
	failure := c.RGBErr
	pose := c.currentPoseLocked()
	c.mu.Unlock()
	if failure != nil {
		return nil, failure
	}

	dc := gg.NewContext(c.Width, c.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	for _, pt := range c.Intrinsics.ProjectPoints(c.Spec.ObjectPoints(), pose) {
		dc.DrawCircle(pt.X, pt.Y, 2)
		dc.Fill()
	}
	return dc.Image(), nil
}

// GetIntrinsics returns the configured pinhole intrinsics.
func (c *Camera) GetIntrinsics(ctx context.Context) (*transform.PinholeCameraIntrinsics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Intrinsics == nil {
		return nil, transform.ErrNoIntrinsics
	}
	return c.Intrinsics, nil
}

// FindCorners returns the exact projected corner locations of the chessboard
// for the current ground-truth pose, ignoring the frame contents. The
// signature matches the corner finder used by pose estimation, so a fake
// camera can stand in for a detector in tests.
func (c *Camera) FindCorners(_ image.Image, spec chessboard.Spec) ([]r2.Point, error) {
	if spec != c.Spec {
		return nil, errors.Errorf(
			"fake camera renders a %dx%d board, asked to find %dx%d",
			c.Spec.Columns, c.Spec.Rows, spec.Columns, spec.Rows,
		)
	}
	c.mu.Lock()
	pose := c.currentPoseLocked()
	c.advancePoseLocked()
	c.mu.Unlock()
	return c.Intrinsics.ProjectPoints(spec.ObjectPoints(), pose), nil
}

// RGBCalls reports how many frames have been requested so far.
func (c *Camera) RGBCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rgbCalls
}

func (c *Camera) currentPoseLocked() *spatialmath.Pose {
	if len(c.PoseSequence) > 0 {
		return c.PoseSequence[c.poseIdx%len(c.PoseSequence)]
	}
	return c.BoardPose
}

func (c *Camera) advancePoseLocked() {
	if len(c.PoseSequence) > 0 {
		c.poseIdx++
	}
}
