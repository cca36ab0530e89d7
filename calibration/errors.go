package calibration

import "github.com/pkg/errors"

var (
	// ErrNeedTwoCameras is returned when extrinsic calibration is asked to run
	// with fewer than two cameras.
	ErrNeedTwoCameras = errors.New("extrinsic calibration requires at least two cameras")

	// ErrPatternNotFound is returned when the chessboard could not be located
	// within the configured number of attempts.
	ErrPatternNotFound = errors.New("chessboard pattern not found")
)
