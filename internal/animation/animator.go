package animation

import (
	"errors"
	"fmt"
)

// ClipID идентификатор анимационного клипа
type ClipID int

const (
	Idle ClipID = iota
	Move
	Attack
	Death
)

// String возвращает имя клипа
func (id ClipID) String() string {
	switch id {
	case Idle:
		return "idle"
	case Move:
		return "move"
	case Attack:
		return "attack"
	case Death:
		return "death"
	default:
		return fmt.Sprintf("clip(%d)", int(id))
	}
}

// ErrInvalidAnimationID возвращается при обращении к клипу, которого нет в таблице
var ErrInvalidAnimationID = errors.New("invalid animation id")

// Clip описывает анимационную последовательность
type Clip struct {
	ID            ClipID `json:"id" yaml:"-"`
	FirstFrame    int    `json:"first_frame" yaml:"first_frame"`
	LastFrame     int    `json:"last_frame" yaml:"last_frame"`
	Loopable      bool   `json:"loopable" yaml:"loopable"`
	Interruptible bool   `json:"interruptible" yaml:"interruptible"`
}

// Validate проверяет границы кадров
func (c Clip) Validate() error {
	if c.FirstFrame < 0 || c.LastFrame < c.FirstFrame {
		return fmt.Errorf("клип %s: неверный диапазон кадров [%d, %d]", c.ID, c.FirstFrame, c.LastFrame)
	}
	return nil
}

// Pose снимок текущего состояния аниматора для рендера
type Pose struct {
	Clip  ClipID `json:"clip"`
	Frame int    `json:"frame"`
}

// Animator конечный автомат анимаций одной сущности.
// Состояния - клипы, переходы выполняются через SetAnimation.
type Animator struct {
	clips   map[ClipID]Clip
	current Clip
	frame   int
}

// NewAnimator создаёт аниматор с таблицей клипов и начальным клипом initial
func NewAnimator(clips []Clip, initial ClipID) (*Animator, error) {
	if len(clips) == 0 {
		return nil, fmt.Errorf("пустая таблица клипов: %w", ErrInvalidAnimationID)
	}

	table := make(map[ClipID]Clip, len(clips))
	for _, clip := range clips {
		if err := clip.Validate(); err != nil {
			return nil, err
		}
		table[clip.ID] = clip
	}

	start, ok := table[initial]
	if !ok {
		return nil, fmt.Errorf("начальный клип %s: %w", initial, ErrInvalidAnimationID)
	}

	return &Animator{
		clips:   table,
		current: start,
		frame:   start.FirstFrame,
	}, nil
}

// Current возвращает активный клип
func (a *Animator) Current() Clip {
	return a.current
}

// Frame возвращает текущий кадр
func (a *Animator) Frame() int {
	return a.frame
}

// Pose возвращает снимок состояния
func (a *Animator) Pose() Pose {
	return Pose{Clip: a.current.ID, Frame: a.frame}
}

// Clip возвращает метаданные клипа по идентификатору
func (a *Animator) Clip(id ClipID) (Clip, error) {
	clip, ok := a.clips[id]
	if !ok {
		return Clip{}, fmt.Errorf("клип %s: %w", id, ErrInvalidAnimationID)
	}
	return clip, nil
}

// SetAnimation пытается переключить активный клип.
// Возвращает true, если переход выполнен. Переход на текущий клип ничего не делает.
// Непрерываемый клип блокирует переход, пока не дошёл до последнего кадра.
func (a *Animator) SetAnimation(id ClipID) (bool, error) {
	target, err := a.Clip(id)
	if err != nil {
		return false, err
	}

	if target.ID == a.current.ID {
		return false, nil
	}

	if !a.current.Interruptible && a.frame < a.current.LastFrame {
		return false, nil
	}

	a.current = target
	a.frame = target.FirstFrame
	return true, nil
}

// Advance сдвигает кадр на один и возвращает новую позу.
// speed пока учитывается только рендером: шаг всегда равен одному кадру за тик.
// Незацикленный клип остаётся на последнем кадре при каждом следующем вызове.
func (a *Animator) Advance(speed float32) Pose {
	a.frame++
	if a.frame > a.current.LastFrame {
		if a.current.Loopable {
			a.frame = a.current.FirstFrame
		} else {
			a.frame = a.current.LastFrame
		}
	}

	return a.Pose()
}

// Restore выставляет клип и кадр напрямую (загрузка сохранения).
// Кадр ограничивается диапазоном клипа.
func (a *Animator) Restore(pose Pose) error {
	clip, err := a.Clip(pose.Clip)
	if err != nil {
		return err
	}

	frame := pose.Frame
	if frame < clip.FirstFrame {
		frame = clip.FirstFrame
	}
	if frame > clip.LastFrame {
		frame = clip.LastFrame
	}

	a.current = clip
	a.frame = frame
	return nil
}

// DefaultClips возвращает таблицу клипов модели врага по умолчанию
func DefaultClips() []Clip {
	return []Clip{
		{ID: Idle, FirstFrame: 0, LastFrame: 59, Loopable: true, Interruptible: true},
		{ID: Move, FirstFrame: 0, LastFrame: 39, Loopable: true, Interruptible: true},
		{ID: Attack, FirstFrame: 0, LastFrame: 29, Loopable: false, Interruptible: false},
		{ID: Death, FirstFrame: 0, LastFrame: 49, Loopable: false, Interruptible: false},
	}
}
