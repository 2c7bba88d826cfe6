// Package render описывает кадр, который сцена отдаёт отрисовщику.
// Отрисовщик читает только снимок кадра и не трогает состояние сцены.
package render

import (
	"image/color"
	"sync"

	"github.com/annel0/fps-core/internal/animation"
	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/go-gl/mathgl/mgl32"
)

// White цвет без подкраски
var White = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// DrawCommand одна модель для отрисовки
type DrawCommand struct {
	EntityID  uint32
	Model     assets.Model
	Position  mgl32.Vec3
	Scale     float32
	Tint      color.RGBA
	Transform mgl32.Mat4     // Ориентация модели (Ident4 для статичных)
	Pose      animation.Pose // Клип и кадр для анимированных моделей
	Animated  bool
}

// Frame снимок сцены на момент конца тика
type Frame struct {
	Tick     uint64
	Commands []DrawCommand
}

// Renderer принимает готовые кадры
type Renderer interface {
	Render(frame Frame) error
}

// Discard отбрасывает кадры
type Discard struct{}

// Render ничего не делает
func (Discard) Render(Frame) error { return nil }

// Recorder запоминает последние кадры. Используется в тестах и REST API.
type Recorder struct {
	mu     sync.Mutex
	frames []Frame
	limit  int
}

// NewRecorder создаёт Recorder, хранящий не больше limit кадров (0 - без ограничения)
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Render сохраняет кадр
func (r *Recorder) Render(frame Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames = append(r.frames, frame)
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
	return nil
}

// Frames возвращает копию сохранённых кадров
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Last возвращает последний кадр
func (r *Recorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// LogRenderer пишет содержимое кадров в лог уровня TRACE
type LogRenderer struct {
	Logger *logging.Logger
}

// Render логирует кадр
func (r LogRenderer) Render(frame Frame) error {
	logger := r.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if !logger.Enabled(logging.TRACE) {
		return nil
	}

	logger.Trace("Кадр %d: %d моделей", frame.Tick, len(frame.Commands))
	for _, cmd := range frame.Commands {
		if cmd.Animated {
			logger.Trace("  #%d %s @ %v клип=%s кадр=%d", cmd.EntityID, cmd.Model.Mesh, cmd.Position, cmd.Pose.Clip, cmd.Pose.Frame)
			continue
		}
		logger.Trace("  #%d %s @ %v", cmd.EntityID, cmd.Model.Mesh, cmd.Position)
	}
	return nil
}

// Multi рассылает кадр нескольким отрисовщикам и возвращает первую ошибку
type Multi []Renderer

// Render передаёт кадр каждому отрисовщику
func (m Multi) Render(frame Frame) error {
	var first error
	for _, r := range m {
		if err := r.Render(frame); err != nil && first == nil {
			first = err
		}
	}
	return first
}
