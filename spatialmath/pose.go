package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid pose: the orientation and position of one frame expressed in
// another. Translations are in meters.
type Pose struct {
	Rotation    *RotationMatrix
	Translation r3.Vector
}

// NewPose creates a pose from a rotation and a translation.
func NewPose(rotation *RotationMatrix, translation r3.Vector) *Pose {
	return &Pose{Rotation: rotation, Translation: translation}
}

// MeanPose aggregates repeated pose estimates of the same frame into one
// representative pose. Rotations are combined with a quaternion mean
// (sign-aligned component average, renormalized) so the result always stays on
// the rotation group; translations are averaged per component.
func MeanPose(poses []*Pose) (*Pose, error) {
	if len(poses) == 0 {
		return nil, errors.New("cannot average zero poses")
	}
	rotations := make([]*RotationMatrix, len(poses))
	xs := make([]float64, len(poses))
	ys := make([]float64, len(poses))
	zs := make([]float64, len(poses))
	for i, p := range poses {
		rotations[i] = p.Rotation
		xs[i] = p.Translation.X
		ys[i] = p.Translation.Y
		zs[i] = p.Translation.Z
	}
	rotation, err := MeanRotation(rotations)
	if err != nil {
		return nil, err
	}
	mx, err := stats.Mean(xs)
	if err != nil {
		return nil, err
	}
	my, err := stats.Mean(ys)
	if err != nil {
		return nil, err
	}
	mz, err := stats.Mean(zs)
	if err != nil {
		return nil, err
	}
	return NewPose(rotation, r3.Vector{X: mx, Y: my, Z: mz}), nil
}

// MeanRotation computes a rotation-group mean of the given rotations by
// averaging their unit quaternions. Antipodal quaternions represent the same
// rotation, so every quaternion is sign-aligned with the first before summing.
func MeanRotation(rotations []*RotationMatrix) (*RotationMatrix, error) {
	if len(rotations) == 0 {
		return nil, errors.New("cannot average zero rotations")
	}
	var sum quat.Number
	first := rotations[0].Quaternion()
	for _, rm := range rotations {
		q := rm.Quaternion()
		if first.Real*q.Real+first.Imag*q.Imag+first.Jmag*q.Jmag+first.Kmag*q.Kmag < 0 {
			q = quat.Scale(-1, q)
		}
		sum = quat.Add(sum, q)
	}
	norm := quat.Abs(sum)
	if norm == 0 {
		return nil, errors.New("rotation samples cancel out, no meaningful mean")
	}
	return QuatToRotationMatrix(quat.Scale(1/norm, sum)), nil
}
