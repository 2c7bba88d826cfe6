package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/annel0/fps-core/internal/animation"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRenderer struct{ err error }

func (f failingRenderer) Render(Frame) error { return f.err }

func TestRecorder_Limit(t *testing.T) {
	r := NewRecorder(2)
	for tick := uint64(1); tick <= 3; tick++ {
		require.NoError(t, r.Render(Frame{Tick: tick}))
	}

	frames := r.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, uint64(2), frames[0].Tick)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(3), last.Tick)
}

func TestRecorder_Empty(t *testing.T) {
	_, ok := NewRecorder(0).Last()
	assert.False(t, ok)
}

func TestLogRenderer(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLoggerWithOptions("render", logging.Options{ConsoleLevel: logging.TRACE, Console: &buf, DisableFileSink: true})
	require.NoError(t, err)

	frame := Frame{Tick: 7, Commands: []DrawCommand{
		{EntityID: 5, Position: mgl32.Vec3{1, 0, 1}, Animated: true, Pose: animation.Pose{Clip: animation.Move, Frame: 3}},
	}}
	require.NoError(t, LogRenderer{Logger: logger}.Render(frame))

	assert.Contains(t, buf.String(), "Кадр 7: 1 моделей")
	assert.Contains(t, buf.String(), "кадр=3")
}

func TestMulti(t *testing.T) {
	rec := NewRecorder(0)
	boom := errors.New("boom")

	err := Multi{failingRenderer{boom}, rec, Discard{}}.Render(Frame{Tick: 1})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.Frames(), 1, "Ошибка одного отрисовщика не мешает остальным")
}
