package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// QuatFromEuler строит кватернион из углов Эйлера (в радианах).
// pitch вращает вокруг X, yaw вокруг Y, roll вокруг Z.
func QuatFromEuler(pitch, yaw, roll float32) mgl32.Quat {
	x0 := float32(math.Cos(float64(pitch * 0.5)))
	x1 := float32(math.Sin(float64(pitch * 0.5)))
	y0 := float32(math.Cos(float64(yaw * 0.5)))
	y1 := float32(math.Sin(float64(yaw * 0.5)))
	z0 := float32(math.Cos(float64(roll * 0.5)))
	z1 := float32(math.Sin(float64(roll * 0.5)))

	return mgl32.Quat{
		W: x0*y0*z0 + x1*y1*z1,
		V: mgl32.Vec3{
			x1*y0*z0 - x0*y1*z1,
			x0*y1*z0 + x1*y0*z1,
			x0*y0*z1 - x1*y1*z0,
		},
	}
}

// YawTowards возвращает угол поворота вокруг Y, при котором объект в from смотрит на to.
// Знак и смещение на π/2 соответствуют ориентации моделей врагов.
func YawTowards(from, to mgl32.Vec3) float32 {
	diff := from.Sub(to)
	return float32(-(math.Atan2(float64(diff.Z()), float64(diff.X())) + math.Pi/2.0))
}

// SlerpEuler интерполирует ориентацию между двумя наборами углов Эйлера.
// Углы передаются в порядке (z, y, x), как их хранят сущности.
func SlerpEuler(from, to mgl32.Vec3, amount float32) mgl32.Quat {
	start := QuatFromEuler(from.Z(), from.Y(), from.X())
	end := QuatFromEuler(to.Z(), to.Y(), to.X())
	return mgl32.QuatSlerp(start, end, amount)
}
