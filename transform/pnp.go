package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/iasrobolab/camera-calibration/spatialmath"
)

// SolvePlanarPnP recovers the pose of a planar object from n >= 4
// correspondences between object points (z = 0, in meters) and their observed
// pixel coordinates. The returned pose maps object-frame points into the
// camera frame. The solve is closed form: the object-to-image homography is
// estimated in normalized image coordinates and decomposed into rotation
// columns and translation, with an SVD projection back onto the rotation group.
func SolvePlanarPnP(
	objectPoints []r3.Vector,
	imagePoints []r2.Point,
	params *PinholeCameraIntrinsics,
) (*spatialmath.Pose, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if len(objectPoints) != len(imagePoints) {
		return nil, errors.Errorf("have %d object points but %d image points", len(objectPoints), len(imagePoints))
	}
	if len(objectPoints) < 4 {
		return nil, errors.Wrapf(ErrDegenerateObservation, "need at least 4 points, got %d", len(objectPoints))
	}

	planar := make([]r2.Point, len(objectPoints))
	for i, pt := range objectPoints {
		if math.Abs(pt.Z) > 1e-9 {
			return nil, errors.Errorf("object point %d is not on the z=0 plane", i)
		}
		planar[i] = r2.Point{X: pt.X, Y: pt.Y}
	}
	normalized := make([]r2.Point, len(imagePoints))
	for i, pt := range imagePoints {
		normalized[i] = params.PixelToNormalized(pt)
	}

	h, err := EstimateHomography(planar, normalized)
	if err != nil {
		return nil, err
	}

	// H ~ [r1 r2 t] up to scale; fix the scale with the unit length of the
	// rotation columns and the sign with the requirement that the object lies
	// in front of the camera (t.z > 0).
	h1, h2, h3 := h.Col(0), h.Col(1), h.Col(2)
	n1 := math.Sqrt(h1[0]*h1[0] + h1[1]*h1[1] + h1[2]*h1[2])
	n2 := math.Sqrt(h2[0]*h2[0] + h2[1]*h2[1] + h2[2]*h2[2])
	if n1 == 0 || n2 == 0 {
		return nil, ErrDegenerateObservation
	}
	lambda := 2. / (n1 + n2)
	if h3[2] < 0 {
		lambda = -lambda
	}
	r1 := r3.Vector{X: lambda * h1[0], Y: lambda * h1[1], Z: lambda * h1[2]}
	r2col := r3.Vector{X: lambda * h2[0], Y: lambda * h2[1], Z: lambda * h2[2]}
	r3col := r1.Cross(r2col)
	translation := r3.Vector{X: lambda * h3[0], Y: lambda * h3[1], Z: lambda * h3[2]}

	approx := mat.NewDense(3, 3, []float64{
		r1.X, r2col.X, r3col.X,
		r1.Y, r2col.Y, r3col.Y,
		r1.Z, r2col.Z, r3col.Z,
	})
	rotation, err := spatialmath.OrthonormalizeRotation(approx)
	if err != nil {
		return nil, errors.Wrap(err, "homography decomposition produced an unusable rotation")
	}
	return spatialmath.NewPose(rotation, translation), nil
}

// ReprojectionError returns the root mean square pixel distance between the
// observed image points and the object points projected through the pose.
func ReprojectionError(
	pose *spatialmath.Pose,
	objectPoints []r3.Vector,
	imagePoints []r2.Point,
	params *PinholeCameraIntrinsics,
) float64 {
	projected := params.ProjectPoints(objectPoints, pose)
	sum := 0.
	for i, pt := range projected {
		diff := pt.Sub(imagePoints[i])
		sum += diff.X*diff.X + diff.Y*diff.Y
	}
	return math.Sqrt(sum / float64(len(projected)))
}

// RefinePlanarPnP polishes a closed-form PnP solution by minimizing the
// reprojection error over the 6 pose parameters (axis-angle rotation and
// translation) with a derivative-free Nelder-Mead search. The refined pose is
// returned only when it does not increase the reprojection error.
func RefinePlanarPnP(
	initial *spatialmath.Pose,
	objectPoints []r3.Vector,
	imagePoints []r2.Point,
	params *PinholeCameraIntrinsics,
) (*spatialmath.Pose, error) {
	x0 := poseToVector(initial)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			pose := vectorToPose(x)
			err := ReprojectionError(pose, objectPoints, imagePoints, params)
			return err * err
		},
	}
	result, err := optimize.Minimize(problem, x0, &optimize.Settings{
		MajorIterations: 500,
	}, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, errors.Wrap(err, "reprojection refinement failed")
	}
	refined := vectorToPose(result.X)
	if ReprojectionError(refined, objectPoints, imagePoints, params) >
		ReprojectionError(initial, objectPoints, imagePoints, params) {
		return initial, nil
	}
	return refined, nil
}

// poseToVector packs a pose into [wx wy wz tx ty tz] with w an axis-angle
// rotation vector.
func poseToVector(pose *spatialmath.Pose) []float64 {
	q := pose.Rotation.Quaternion()
	w := math.Min(1, math.Max(-1, q.Real))
	theta := 2 * math.Acos(w)
	var axis r3.Vector
	s := math.Sqrt(1 - w*w)
	if s > 1e-9 {
		axis = r3.Vector{X: q.Imag / s, Y: q.Jmag / s, Z: q.Kmag / s}
	}
	rv := axis.Mul(theta)
	t := pose.Translation
	return []float64{rv.X, rv.Y, rv.Z, t.X, t.Y, t.Z}
}

func vectorToPose(x []float64) *spatialmath.Pose {
	rv := r3.Vector{X: x[0], Y: x[1], Z: x[2]}
	rotation := spatialmath.NewRotationMatrixFromAxisAngle(rv, rv.Norm())
	return spatialmath.NewPose(rotation, r3.Vector{X: x[3], Y: x[4], Z: x[5]})
}
