package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func testTransform() *RigidTransform {
	r := NewRotationMatrixFromAxisAngle(r3.Vector{X: 0.2, Y: -1, Z: 0.5}, 1.3)
	return NewRigidTransform(r, r3.Vector{X: 0.1, Y: -0.25, Z: 2})
}

func TestInverseCancels(t *testing.T) {
	tf := testTransform()
	id := tf.Compose(tf.Inverse())
	test.That(t, id.IsIdentity(1e-12), test.ShouldBeTrue)
	id = tf.Inverse().Compose(tf)
	test.That(t, id.IsIdentity(1e-12), test.ShouldBeTrue)
}

func TestMatLayout(t *testing.T) {
	tf := testTransform()
	m := tf.Mat()
	r, c := m.Dims()
	test.That(t, r, test.ShouldEqual, 4)
	test.That(t, c, test.ShouldEqual, 4)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test.That(t, m.At(i, j), test.ShouldAlmostEqual, tf.Rotation().At(i, j))
		}
	}
	test.That(t, m.At(0, 3), test.ShouldAlmostEqual, tf.Translation().X)
	test.That(t, m.At(1, 3), test.ShouldAlmostEqual, tf.Translation().Y)
	test.That(t, m.At(2, 3), test.ShouldAlmostEqual, tf.Translation().Z)
	test.That(t, m.At(3, 0), test.ShouldAlmostEqual, 0.)
	test.That(t, m.At(3, 1), test.ShouldAlmostEqual, 0.)
	test.That(t, m.At(3, 2), test.ShouldAlmostEqual, 0.)
	test.That(t, m.At(3, 3), test.ShouldAlmostEqual, 1.)

	// the dense 4x4 is invertible and matches the closed-form inverse
	var inv mat.Dense
	err := inv.Inverse(m)
	test.That(t, err, test.ShouldBeNil)
	closed := tf.Inverse().Mat()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			test.That(t, inv.At(i, j), test.ShouldAlmostEqual, closed.At(i, j), 1e-9)
		}
	}
}

func TestComposeMatchesMatrixProduct(t *testing.T) {
	a := testTransform()
	b := NewRigidTransform(
		NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, math.Pi/3),
		r3.Vector{X: -1, Y: 0.5, Z: 0.25},
	)
	composed := a.Compose(b).Mat()
	var product mat.Dense
	product.Mul(a.Mat(), b.Mat())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			test.That(t, composed.At(i, j), test.ShouldAlmostEqual, product.At(i, j), 1e-12)
		}
	}
}

func TestApply(t *testing.T) {
	tf := NewRigidTransform(
		NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2),
		r3.Vector{X: 1},
	)
	got := tf.Apply(r3.Vector{X: 1})
	test.That(t, got.X, test.ShouldAlmostEqual, 1., 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, 1., 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0., 1e-12)
}
