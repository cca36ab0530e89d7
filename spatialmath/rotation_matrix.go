// Package spatialmath provides the rotation and rigid-transform types used to
// express chessboard and camera poses.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of floats in row
// major order. The matrix is expected to be a proper rotation; use
// OrthonormalizeRotation to project an arbitrary matrix onto the rotation group.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	mat := [9]float64{m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]}
	return &RotationMatrix{mat}, nil
}

// NewIdentityRotationMatrix returns the identity rotation.
func NewIdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// At returns the value of the matrix at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the a 3 element vector corresponding to the specified row.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the a 3 element vector corresponding to the specified column.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[3+col], Z: rm.mat[6+col]}
}

// Transpose returns the transpose, which for a proper rotation is the inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	m := rm.mat
	return &RotationMatrix{[9]float64{m[0], m[3], m[6], m[1], m[4], m[7], m[2], m[5], m[8]}}
}

// Det returns the determinant.
func (rm *RotationMatrix) Det() float64 {
	m := rm.mat
	return m[0]*(m[4]*m[8]-m[5]*m[7]) - m[1]*(m[3]*m[8]-m[5]*m[6]) + m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Apply rotates the vector v.
func (rm *RotationMatrix) Apply(v r3.Vector) r3.Vector {
	m := rm.mat
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// MatMul returns the product a*b of two rotation matrices.
func MatMul(a, b *RotationMatrix) *RotationMatrix {
	var out [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.
			for k := 0; k < 3; k++ {
				sum += a.mat[3*i+k] * b.mat[3*k+j]
			}
			out[3*i+j] = sum
		}
	}
	return &RotationMatrix{out}
}

// RowMajor returns the matrix elements as a 9 element slice in row major order.
func (rm *RotationMatrix) RowMajor() []float64 {
	out := make([]float64, 9)
	copy(out, rm.mat[:])
	return out
}

// OrthonormalityError measures how far the matrix is from satisfying
// transpose(R) * R = I. Zero for a perfect rotation.
func (rm *RotationMatrix) OrthonormalityError() float64 {
	rtr := MatMul(rm.Transpose(), rm)
	worst := 0.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.
			if i == j {
				want = 1.
			}
			if d := math.Abs(rtr.At(i, j) - want); d > worst {
				worst = d
			}
		}
	}
	return worst
}

// Quaternion returns the unit quaternion representation (Shepperd's method).
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := rm.mat
	var w, x, y, z float64
	tr := m[0] + m[4] + m[8]
	switch {
	case tr > 0:
		s := 0.5 / math.Sqrt(tr+1.0)
		w = 0.25 / s
		x = (m[7] - m[5]) * s
		y = (m[2] - m[6]) * s
		z = (m[3] - m[1]) * s
	case m[0] > m[4] && m[0] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[0]-m[4]-m[8])
		w = (m[7] - m[5]) / s
		x = 0.25 * s
		y = (m[1] + m[3]) / s
		z = (m[2] + m[6]) / s
	case m[4] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[4]-m[0]-m[8])
		w = (m[2] - m[6]) / s
		x = (m[1] + m[3]) / s
		y = 0.25 * s
		z = (m[5] + m[7]) / s
	default:
		s := 2.0 * math.Sqrt(1.0+m[8]-m[0]-m[4])
		w = (m[3] - m[1]) / s
		x = (m[2] + m[6]) / s
		y = (m[5] + m[7]) / s
		z = 0.25 * s
	}
	return quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// QuatToRotationMatrix converts a unit quaternion to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{[9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}}
}

// OrthonormalizeRotation projects an arbitrary 3x3 matrix onto the closest
// proper rotation (Frobenius norm) using an SVD: R = U * diag(1, 1, det(U V^T)) * V^T.
func OrthonormalizeRotation(m *mat.Dense) (*RotationMatrix, error) {
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return nil, errors.Errorf("expected a 3x3 matrix, got %dx%d", r, c)
	}
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize rotation matrix")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	var uvt mat.Dense
	uvt.Mul(&u, v.T())
	if mat.Det(&uvt) < 0 {
		// flip the last column of U to avoid a reflection
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		uvt.Mul(&u, v.T())
	}
	return NewRotationMatrix(uvt.RawMatrix().Data)
}

// NewRotationMatrixFromAxisAngle builds the rotation of theta radians about the
// given axis (Rodrigues' formula). The axis does not need to be normalized.
func NewRotationMatrixFromAxisAngle(axis r3.Vector, theta float64) *RotationMatrix {
	if axis.Norm() == 0 {
		return NewIdentityRotationMatrix()
	}
	a := axis.Normalize()
	c, s := math.Cos(theta), math.Sin(theta)
	oc := 1 - c
	return &RotationMatrix{[9]float64{
		c + a.X*a.X*oc, a.X*a.Y*oc - a.Z*s, a.X*a.Z*oc + a.Y*s,
		a.Y*a.X*oc + a.Z*s, c + a.Y*a.Y*oc, a.Y*a.Z*oc - a.X*s,
		a.Z*a.X*oc - a.Y*s, a.Z*a.Y*oc + a.X*s, c + a.Z*a.Z*oc,
	}}
}
