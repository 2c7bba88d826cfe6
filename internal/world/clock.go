package world

import "time"

// FixedClock отдаёт постоянный шаг времени
type FixedClock float32

// FrameTime возвращает шаг
func (c FixedClock) FrameTime() float32 { return float32(c) }

// WallClock измеряет реальное время между тиками.
// Значение фиксируется вызовом Tick и не меняется до следующего.
type WallClock struct {
	now     func() time.Time
	last    time.Time
	dt      float32
	maxStep float32
}

// NewWallClock создаёт часы; шаг ограничивается maxStep (0 - без ограничения)
func NewWallClock(maxStep time.Duration) *WallClock {
	return newWallClock(time.Now, maxStep)
}

func newWallClock(now func() time.Time, maxStep time.Duration) *WallClock {
	return &WallClock{
		now:     now,
		last:    now(),
		maxStep: float32(maxStep.Seconds()),
	}
}

// Tick фиксирует время, прошедшее с прошлого вызова
func (c *WallClock) Tick() float32 {
	current := c.now()
	c.dt = float32(current.Sub(c.last).Seconds())
	c.last = current

	if c.dt < 0 {
		c.dt = 0
	}
	if c.maxStep > 0 && c.dt > c.maxStep {
		c.dt = c.maxStep
	}
	return c.dt
}

// FrameTime возвращает шаг последнего тика
func (c *WallClock) FrameTime() float32 {
	return c.dt
}
