package physics

import (
	"math"

	"github.com/annel0/fps-core/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// RayHit результат пересечения луча с объёмом
type RayHit struct {
	Hit      bool       // Было ли пересечение
	Distance float32    // Расстояние от начала луча до точки входа
	Point    mgl32.Vec3 // Точка пересечения
}

// CheckBoxCollision проверяет пересечение двух AABB.
// Касание граней столкновением не считается.
func CheckBoxCollision(a, b vec.BoundingBox) bool {
	return a.Min.X() < b.Max.X() && a.Max.X() > b.Min.X() &&
		a.Min.Y() < b.Max.Y() && a.Max.Y() > b.Min.Y() &&
		a.Min.Z() < b.Max.Z() && a.Max.Z() > b.Min.Z()
}

// IsPointInside проверяет, находится ли точка внутри коробки (включая границы)
func IsPointInside(box vec.BoundingBox, point mgl32.Vec3) bool {
	return point.X() >= box.Min.X() && point.X() <= box.Max.X() &&
		point.Y() >= box.Min.Y() && point.Y() <= box.Max.Y() &&
		point.Z() >= box.Min.Z() && point.Z() <= box.Max.Z()
}

// GetRayCollisionBox ищет пересечение луча с AABB методом слэбов.
// Если начало луча внутри коробки, возвращается точка выхода.
func GetRayCollisionBox(ray vec.Ray, box vec.BoundingBox) RayHit {
	tMin := float32(math.Inf(-1))
	tMax := float32(math.Inf(1))

	for axis := 0; axis < 3; axis++ {
		origin := ray.Position[axis]
		dir := ray.Direction[axis]

		if dir == 0 {
			// Луч параллелен слэбу: пересечение возможно только если начало внутри
			if origin < box.Min[axis] || origin > box.Max[axis] {
				return RayHit{}
			}
			continue
		}

		inv := 1 / dir
		t1 := (box.Min[axis] - origin) * inv
		t2 := (box.Max[axis] - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return RayHit{}
		}
	}

	if tMax < 0 {
		// Коробка целиком позади луча
		return RayHit{}
	}

	distance := tMin
	if distance < 0 {
		distance = tMax
	}

	return RayHit{
		Hit:      true,
		Distance: distance,
		Point:    ray.At(distance),
	}
}
