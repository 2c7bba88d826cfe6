package entity

import (
	"image/color"

	"github.com/annel0/fps-core/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Clock отдаёт время, прошедшее с прошлого тика (секунды).
// Внутри одного тика все вызовы возвращают одно и то же значение.
type Clock interface {
	FrameTime() float32
}

// WorldAPI предоставляет сущностям доступ к сцене
type WorldAPI interface {
	// Player возвращает текущего игрока
	Player() *Player

	// Entities возвращает упорядоченный список сущностей сцены
	Entities() []*Entity

	// CheckCollision проверяет пересечение коробки с геометрией уровня и сущностями,
	// пропуская сущность excludeID
	CheckCollision(position, size mgl32.Vec3, excludeID uint32) bool

	// NearestLevelHit возвращает расстояние до ближайшего блока уровня на луче
	// или +Inf, если попаданий нет
	NearestLevelHit(ray vec.Ray) float32
}

// ProjectileSpawner создаёт снаряды. Вызов не ждёт результата.
type ProjectileSpawner interface {
	Create(ray vec.Ray, size mgl32.Vec3, damage int, ownerID uint32, tint color.RGBA)
}

// EventType тип игрового события
type EventType string

const (
	EventProjectileFired   EventType = "ProjectileFired"
	EventProjectileHit     EventType = "ProjectileHit"
	EventProjectileExpired EventType = "ProjectileExpired"
	EventActorDamaged      EventType = "ActorDamaged"
	EventActorDied         EventType = "ActorDied"
	EventPlayerDamaged     EventType = "PlayerDamaged"
)

// Event игровое событие ядра
type Event struct {
	Type     EventType  `json:"type"`
	EntityID uint32     `json:"entity_id"`           // Кого касается событие
	SourceID uint32     `json:"source_id,omitempty"` // Кто вызвал (владелец снаряда)
	Amount   int        `json:"amount,omitempty"`    // Урон
	Health   int        `json:"health,omitempty"`    // Здоровье после события
	Position mgl32.Vec3 `json:"position"`
}

// EventSink получает события ядра
type EventSink interface {
	Emit(ev Event)
}

// EventSinkFunc адаптер функции к EventSink
type EventSinkFunc func(ev Event)

// Emit вызывает функцию
func (f EventSinkFunc) Emit(ev Event) { f(ev) }

// NopSink отбрасывает события
type NopSink struct{}

// Emit ничего не делает
func (NopSink) Emit(Event) {}

// TickContext зависимости, передаваемые в обновление сущности
type TickContext struct {
	World       WorldAPI
	Clock       Clock
	Projectiles ProjectileSpawner
	Events      EventSink
}

func (ctx *TickContext) emit(ev Event) {
	if ctx.Events != nil {
		ctx.Events.Emit(ev)
	}
}

// Behavior обновляет сущность определённого типа один раз за тик
type Behavior interface {
	Update(ctx *TickContext, e *Entity) error
}
