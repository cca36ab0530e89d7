package chessboard

import (
	"image"

	"github.com/golang/geo/r2"

	"github.com/iasrobolab/camera-calibration/rimage"
)

// DetectionConfiguration stores the parameters necessary for chessboard
// detection in an image.
type DetectionConfiguration struct {
	Saddle         SaddleConfiguration `json:"saddle"`
	MaxSnapRatio   float64             `json:"max-snap-ratio"`  // snap tolerance as a fraction of the corner spacing
	SubpixelWindow int                 `json:"subpixel-window"` // half window for subpixel refinement
}

// DefaultDetectionConf stores the default chessboard detection parameters.
var DefaultDetectionConf = DetectionConfiguration{
	Saddle:         DefaultSaddleConf,
	MaxSnapRatio:   0.4,
	SubpixelWindow: 5,
}

// Detector finds chessboard corner grids in images.
type Detector struct {
	conf DetectionConfiguration
}

// NewDetector returns a detector with the given configuration; zero-valued
// fields fall back to the defaults.
func NewDetector(conf DetectionConfiguration) *Detector {
	if conf.Saddle.Sigma <= 0 {
		conf.Saddle.Sigma = DefaultSaddleConf.Sigma
	}
	if conf.Saddle.NMSWindowSize <= 0 {
		conf.Saddle.NMSWindowSize = DefaultSaddleConf.NMSWindowSize
	}
	if conf.Saddle.RelativeThreshold <= 0 {
		conf.Saddle.RelativeThreshold = DefaultSaddleConf.RelativeThreshold
	}
	if conf.Saddle.RingRadius <= 0 {
		conf.Saddle.RingRadius = DefaultSaddleConf.RingRadius
	}
	if conf.Saddle.RingTransitions <= 0 {
		conf.Saddle.RingTransitions = DefaultSaddleConf.RingTransitions
	}
	if conf.MaxSnapRatio <= 0 {
		conf.MaxSnapRatio = DefaultDetectionConf.MaxSnapRatio
	}
	if conf.SubpixelWindow <= 0 {
		conf.SubpixelWindow = DefaultDetectionConf.SubpixelWindow
	}
	return &Detector{conf: conf}
}

// FindCorners locates the full inner corner grid of the given chessboard in
// the image. Corners are returned row major from the top-left corner of the
// grid, refined to subpixel precision. ErrNoChessboardFound is returned when
// the pattern is not visible.
func (d *Detector) FindCorners(img image.Image, spec Spec) ([]r2.Point, error) {
	if err := spec.CheckValid(); err != nil {
		return nil, err
	}
	lum := rimage.ConvertImageToLuminanceFloat(img)
	saddles, err := GetSaddlePoints(lum, &d.conf.Saddle)
	if err != nil {
		return nil, err
	}
	ordered, err := orderGridCorners(saddles, spec.Columns, spec.Rows, d.conf.MaxSnapRatio)
	if err != nil {
		return nil, err
	}
	return RefineCornersSubpixel(lum, ordered, d.conf.SubpixelWindow), nil
}
