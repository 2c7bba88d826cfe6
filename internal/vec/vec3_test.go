package vec

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestLerp(t *testing.T) {
	a := mgl32.Vec3{10, 0, 0}
	b := mgl32.Vec3{10, 0, 10}

	result := Lerp(a, b, 0.1)
	assert.InDelta(t, 1.0, result.Z(), 1e-6, "Z должен сдвинуться на 10%")
	assert.Equal(t, float32(10), result.X())

	assert.Equal(t, a, Lerp(a, b, 0), "t=0 должен возвращать начало")
	assert.True(t, Equals(b, Lerp(a, b, 1), 1e-6), "t=1 должен возвращать конец")
}

func TestMakeBoundingBox(t *testing.T) {
	box := MakeBoundingBox(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{2, 4, 6})

	assert.Equal(t, mgl32.Vec3{0, 0, 0}, box.Min)
	assert.Equal(t, mgl32.Vec3{2, 4, 6}, box.Max)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, box.Center())
	assert.Equal(t, mgl32.Vec3{2, 4, 6}, box.Size())
}

func TestNormalizeZero(t *testing.T) {
	assert.Equal(t, Zero, Normalize(Zero), "Нулевой вектор не должен давать NaN")
}

func TestRayTowards(t *testing.T) {
	ray := RayTowards(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 5})

	assert.Equal(t, mgl32.Vec3{0, 0, 0}, ray.Position)
	assert.True(t, Equals(mgl32.Vec3{0, 0, 1}, ray.Direction, 1e-6), "Луч должен смотреть на цель")
	assert.True(t, Equals(mgl32.Vec3{0, 0, 3}, ray.At(3), 1e-6))
}

func TestYawTowards(t *testing.T) {
	// Цель по +Z: diff = (0,0,-1), atan2(-1, 0) = -π/2, yaw = 0
	yaw := YawTowards(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 0.0, yaw, 1e-6)

	// Цель по +X: diff = (-1,0,0), atan2(0, -1) = π, yaw = -3π/2
	yaw = YawTowards(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, -3*math.Pi/2, yaw, 1e-5)
}

func TestQuatFromEulerYawOnly(t *testing.T) {
	yaw := float32(math.Pi / 2)
	q := QuatFromEuler(0, yaw, 0)
	expected := mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0})

	assert.InDelta(t, expected.W, q.W, 1e-6)
	assert.True(t, Equals(expected.V, q.V, 1e-6), "Поворот только по Y должен совпадать с QuatRotate")
}

func TestSlerpEuler(t *testing.T) {
	from := mgl32.Vec3{0, 0, 0}
	to := mgl32.Vec3{0, math.Pi / 2, 0}

	full := SlerpEuler(from, to, 1)
	assert.True(t, full.ApproxEqualThreshold(QuatFromEuler(0, math.Pi/2, 0), 1e-5))

	none := SlerpEuler(from, to, 0)
	assert.True(t, none.ApproxEqualThreshold(mgl32.QuatIdent(), 1e-5))
}
