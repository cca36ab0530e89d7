// Package main runs extrinsic calibration on a synthetic three-camera rig
// and prints the resulting camera-to-reference transforms. With -intrinsics
// it loads pinhole parameters from a JSON file instead of the built-in ones.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/iasrobolab/camera-calibration/calibration"
	"github.com/iasrobolab/camera-calibration/camera"
	"github.com/iasrobolab/camera-calibration/camera/fake"
	"github.com/iasrobolab/camera-calibration/chessboard"
	"github.com/iasrobolab/camera-calibration/spatialmath"
	"github.com/iasrobolab/camera-calibration/transform"
	"github.com/iasrobolab/camera-calibration/utils"
)

func main() {
	columns := flag.Int("columns", 7, "inner corner columns of the chessboard")
	rows := flag.Int("rows", 5, "inner corner rows of the chessboard")
	squareSize := flag.Float64("square-size", 30, "chessboard square size in mm")
	samples := flag.Int("samples", 3, "pose samples per camera")
	intrinsicsFile := flag.String("intrinsics", "", "optional pinhole intrinsics JSON file")
	flag.Parse()

	logger := golog.NewLogger("calibrate")
	board := chessboard.Spec{Columns: *columns, Rows: *rows, SquareSizeMM: *squareSize}

	intrinsics := &transform.PinholeCameraIntrinsics{Fx: 800, Fy: 790, Ppx: 320, Ppy: 240}
	if *intrinsicsFile != "" {
		loaded, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(*intrinsicsFile)
		if err != nil {
			logger.Fatal(err)
		}
		intrinsics = loaded
	}

	// a rig of three cameras around the origin, all watching a board half a
	// meter out
	worldPoses := []*spatialmath.RigidTransform{
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
	boardWorld := spatialmath.NewRigidTransform(
		spatialmath.NewIdentityRotationMatrix(),
		r3.Vector{X: -0.09, Y: -0.06, Z: 0.6},
	)
	cameras := make([]camera.Named, len(worldPoses))
	for i, wp := range worldPoses {
		boardInCam := wp.Inverse().Compose(boardWorld)
		cameras[i] = camera.Named{
			Name: fmt.Sprintf("cam%d", i),
			Camera: fake.NewCamera(
				intrinsics,
				board,
				spatialmath.NewPose(boardInCam.Rotation(), boardInCam.Translation()),
			),
		}
	}

	results, err := calibration.CalibrateExtrinsics(context.Background(), cameras, calibration.CalibrationConfig{
		Estimator:   calibration.EstimatorConfig{Board: board, Logger: logger},
		SampleCount: *samples,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal(err)
	}

	for _, res := range results {
		fmt.Printf("%s_H_%s =\n%v\n\n",
			cameras[0].Name, res.Camera,
			mat.Formatted(res.RefHCam.Mat(), mat.Prefix(""), mat.Squeeze()),
		)
	}
}
