package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// RigidTransform is a 4x4 homogeneous transform [[R, t], [0 0 0 1]] built from
// a proper rotation and a translation, so it is always invertible.
type RigidTransform struct {
	rotation    *RotationMatrix
	translation r3.Vector
}

// NewRigidTransform creates a rigid transform from a rotation and a translation.
func NewRigidTransform(rotation *RotationMatrix, translation r3.Vector) *RigidTransform {
	return &RigidTransform{rotation: rotation, translation: translation}
}

// NewRigidTransformFromPose creates the homogeneous transform of a pose.
func NewRigidTransformFromPose(pose *Pose) *RigidTransform {
	return &RigidTransform{rotation: pose.Rotation, translation: pose.Translation}
}

// NewIdentityRigidTransform returns the identity transform.
func NewIdentityRigidTransform() *RigidTransform {
	return &RigidTransform{rotation: NewIdentityRotationMatrix(), translation: r3.Vector{}}
}

// Rotation returns the rotation block.
func (t *RigidTransform) Rotation() *RotationMatrix {
	return t.rotation
}

// Translation returns the translation block.
func (t *RigidTransform) Translation() r3.Vector {
	return t.translation
}

// Apply transforms the point v.
func (t *RigidTransform) Apply(v r3.Vector) r3.Vector {
	return t.rotation.Apply(v).Add(t.translation)
}

// Inverse returns the inverse transform [[R^T, -R^T t], [0 0 0 1]].
func (t *RigidTransform) Inverse() *RigidTransform {
	rt := t.rotation.Transpose()
	return &RigidTransform{
		rotation:    rt,
		translation: rt.Apply(t.translation).Mul(-1),
	}
}

// Compose returns the transform equivalent to applying other first and then t,
// i.e. the matrix product t * other.
func (t *RigidTransform) Compose(other *RigidTransform) *RigidTransform {
	return &RigidTransform{
		rotation:    MatMul(t.rotation, other.rotation),
		translation: t.rotation.Apply(other.translation).Add(t.translation),
	}
}

// Mat returns the transform as a 4x4 dense matrix.
func (t *RigidTransform) Mat() *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, t.rotation.At(i, j))
		}
	}
	out.Set(0, 3, t.translation.X)
	out.Set(1, 3, t.translation.Y)
	out.Set(2, 3, t.translation.Z)
	out.Set(3, 3, 1)
	return out
}

// AlmostEqual reports whether two transforms agree element-wise within tol.
func (t *RigidTransform) AlmostEqual(other *RigidTransform, tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(t.rotation.At(i, j)-other.rotation.At(i, j)) > tol {
				return false
			}
		}
	}
	diff := t.translation.Sub(other.translation)
	return math.Abs(diff.X) <= tol && math.Abs(diff.Y) <= tol && math.Abs(diff.Z) <= tol
}

// IsIdentity reports whether the transform is the identity within tol.
func (t *RigidTransform) IsIdentity(tol float64) bool {
	return t.AlmostEqual(NewIdentityRigidTransform(), tol)
}
