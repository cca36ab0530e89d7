// Package camera defines the capability a calibration consumer needs from a
// camera: color frames and pinhole intrinsics. Drivers live elsewhere; this
// package only states the contract.
package camera

import (
	"context"
	"image"

	"github.com/iasrobolab/camera-calibration/transform"
)

// Camera is a source of color frames with known pinhole intrinsics.
// Implementations must be safe for sequential reuse; every blocking call
// takes a context for cancellation.
type Camera interface {
	// GetRGB returns the next color frame from the camera.
	GetRGB(ctx context.Context) (image.Image, error)
	// GetIntrinsics returns the pinhole intrinsic parameters of the camera.
	GetIntrinsics(ctx context.Context) (*transform.PinholeCameraIntrinsics, error)
}

// Named couples a camera with a human-readable name for logging and
// result bookkeeping.
type Named struct {
	Name   string
	Camera Camera
}
