package animation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClips() []Clip {
	return []Clip{
		{ID: Idle, FirstFrame: 0, LastFrame: 3, Loopable: true, Interruptible: true},
		{ID: Move, FirstFrame: 10, LastFrame: 14, Loopable: true, Interruptible: true},
		{ID: Attack, FirstFrame: 20, LastFrame: 23, Loopable: false, Interruptible: false},
		{ID: Death, FirstFrame: 30, LastFrame: 32, Loopable: false, Interruptible: false},
	}
}

func newTestAnimator(t *testing.T, initial ClipID) *Animator {
	t.Helper()
	a, err := NewAnimator(testClips(), initial)
	require.NoError(t, err)
	return a
}

func TestAnimator_SetSameClipNeverResets(t *testing.T) {
	for _, clip := range testClips() {
		t.Run(clip.ID.String(), func(t *testing.T) {
			a := newTestAnimator(t, clip.ID)
			a.Advance(1)
			frame := a.Frame()

			switched, err := a.SetAnimation(clip.ID)
			require.NoError(t, err)
			assert.False(t, switched, "Переход на активный клип должен быть no-op")
			assert.Equal(t, frame, a.Frame(), "Кадр не должен сбрасываться")
		})
	}
}

func TestAnimator_NonInterruptibleRefusesSwitch(t *testing.T) {
	a := newTestAnimator(t, Attack)
	a.Advance(1) // кадр 21 < 23

	switched, err := a.SetAnimation(Idle)
	require.NoError(t, err)
	assert.False(t, switched, "Непрерываемый клип должен отклонять переход")
	assert.Equal(t, Attack, a.Current().ID)
	assert.Equal(t, 21, a.Frame(), "Кадр не должен меняться при отказе")
}

func TestAnimator_NonInterruptibleAtLastFrameSwitches(t *testing.T) {
	a := newTestAnimator(t, Attack)
	for a.Frame() < a.Current().LastFrame {
		a.Advance(1)
	}

	switched, err := a.SetAnimation(Move)
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, Move, a.Current().ID)
	assert.Equal(t, 10, a.Frame(), "Кадр должен сброситься на первый кадр нового клипа")
}

func TestAnimator_InterruptibleAlwaysSwitches(t *testing.T) {
	a := newTestAnimator(t, Move)
	a.Advance(1)

	switched, err := a.SetAnimation(Death)
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, 30, a.Frame())
}

func TestAnimator_LoopWraps(t *testing.T) {
	a := newTestAnimator(t, Idle)
	for a.Frame() < a.Current().LastFrame {
		a.Advance(1)
	}

	pose := a.Advance(1)
	assert.Equal(t, 0, pose.Frame, "Цикличный клип должен вернуться на первый кадр")
	assert.Equal(t, Idle, pose.Clip)
}

func TestAnimator_NonLoopClampsForever(t *testing.T) {
	// Незацикленный клип никогда не выходит за последний кадр,
	// но Advance продолжает вызываться каждый тик
	a := newTestAnimator(t, Death)
	for i := 0; i < 100; i++ {
		pose := a.Advance(1)
		assert.LessOrEqual(t, pose.Frame, 32, "Кадр не должен превышать последний")
	}
	assert.Equal(t, 32, a.Frame())
}

func TestAnimator_SpeedDoesNotScaleFrameStep(t *testing.T) {
	a := newTestAnimator(t, Move)

	a.Advance(0.25)
	assert.Equal(t, 11, a.Frame())
	a.Advance(4)
	assert.Equal(t, 12, a.Frame(), "Шаг кадра всегда равен единице")
}

func TestAnimator_InvalidClip(t *testing.T) {
	a := newTestAnimator(t, Idle)

	_, err := a.SetAnimation(ClipID(42))
	assert.ErrorIs(t, err, ErrInvalidAnimationID)
	assert.Equal(t, Idle, a.Current().ID, "Ошибка не должна менять состояние")

	_, err = NewAnimator(testClips(), ClipID(-1))
	assert.ErrorIs(t, err, ErrInvalidAnimationID)

	_, err = NewAnimator(nil, Idle)
	assert.ErrorIs(t, err, ErrInvalidAnimationID)
}

func TestAnimator_InvalidRange(t *testing.T) {
	_, err := NewAnimator([]Clip{{ID: Idle, FirstFrame: 5, LastFrame: 2}}, Idle)
	assert.Error(t, err)
}

func TestAnimator_Restore(t *testing.T) {
	a := newTestAnimator(t, Idle)

	require.NoError(t, a.Restore(Pose{Clip: Death, Frame: 99}))
	assert.Equal(t, Death, a.Current().ID)
	assert.Equal(t, 32, a.Frame(), "Кадр ограничивается последним кадром")

	assert.ErrorIs(t, a.Restore(Pose{Clip: ClipID(9)}), ErrInvalidAnimationID)
}
