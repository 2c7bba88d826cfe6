package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Zero нулевой вектор
var Zero = mgl32.Vec3{0, 0, 0}

// One единичный вектор (используется как размер стандартного блока)
var One = mgl32.Vec3{1, 1, 1}

// Lerp линейно интерполирует между a и b: a + (b-a)*t.
// t не ограничивается диапазоном [0,1].
func Lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Distance возвращает евклидово расстояние между двумя точками
func Distance(a, b mgl32.Vec3) float32 {
	return b.Sub(a).Len()
}

// Normalize возвращает нормализованный вектор; для нулевого вектора возвращает ноль
func Normalize(v mgl32.Vec3) mgl32.Vec3 {
	length := v.Len()
	if length == 0 {
		return Zero
	}
	return v.Mul(1 / length)
}

// Negate инвертирует все компоненты вектора
func Negate(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{-v[0], -v[1], -v[2]}
}

// Equals проверяет равенство векторов с допуском epsilon
func Equals(a, b mgl32.Vec3, epsilon float32) bool {
	return abs32(a[0]-b[0]) <= epsilon &&
		abs32(a[1]-b[1]) <= epsilon &&
		abs32(a[2]-b[2]) <= epsilon
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

// BoundingBox представляет выровненный по осям ограничивающий объём (AABB)
type BoundingBox struct {
	Min mgl32.Vec3 `json:"min"`
	Max mgl32.Vec3 `json:"max"`
}

// MakeBoundingBox строит AABB с центром в position и размерами size
func MakeBoundingBox(position, size mgl32.Vec3) BoundingBox {
	half := size.Mul(0.5)
	return BoundingBox{
		Min: position.Sub(half),
		Max: position.Add(half),
	}
}

// Center возвращает центр коробки
func (b BoundingBox) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size возвращает размеры коробки по осям
func (b BoundingBox) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Ray луч с началом Position и направлением Direction (ожидается нормализованным)
type Ray struct {
	Position  mgl32.Vec3 `json:"position"`
	Direction mgl32.Vec3 `json:"direction"`
}

// At возвращает точку луча на расстоянии distance от начала
func (r Ray) At(distance float32) mgl32.Vec3 {
	return r.Position.Add(r.Direction.Mul(distance))
}

// RayTowards строит луч из from в сторону to.
// Направление считается как инвертированный нормализованный вектор (from - to).
func RayTowards(from, to mgl32.Vec3) Ray {
	v := Normalize(from.Sub(to))
	return Ray{
		Position:  from,
		Direction: Negate(v),
	}
}
