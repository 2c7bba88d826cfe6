package entity

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/annel0/fps-core/internal/animation"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// ProjectileSize размер снаряда врага
var ProjectileSize = mgl32.Vec3{0.2, 0.2, 0.2}

// ProjectileTint цвет снаряда врага
var ProjectileTint = color.RGBA{R: 200, G: 122, B: 255, A: 255}

// CreateRay строит луч из позиции сущности в сторону игрока
func CreateRay(player *Player, e *Entity) vec.Ray {
	return vec.RayTowards(e.Position, player.Position)
}

// NearestObstruction возвращает расстояние до ближайшего препятствия на луче:
// блока уровня или другой сущности (кроме selfID и пустых слотов)
func NearestObstruction(world WorldAPI, ray vec.Ray, selfID uint32) float32 {
	nearest := world.NearestLevelHit(ray)

	for _, other := range world.Entities() {
		if other == nil || other.ID == EmptyID || other.ID == selfID {
			continue
		}
		hit := other.RayHit(ray)
		if hit.Hit && hit.Distance < nearest {
			nearest = hit.Distance
		}
	}

	return nearest
}

// TestPlayerHit проверяет, видит ли актёр игрока: луч к игроку не должен
// упираться ни во что раньше. Незамеченного игрока дальше SpotRadius
// актёр не ищет вовсе. Успешная проверка навсегда выставляет PlayerSpotted.
func TestPlayerHit(world WorldAPI, e *Entity) bool {
	actor, ok := e.Actor()
	if !ok {
		return false
	}

	player := world.Player()
	if player == nil {
		return false
	}

	if vec.Distance(player.Position, e.Position) > actor.SpotRadius && !actor.PlayerSpotted {
		return false
	}

	ray := CreateRay(player, e)
	obstruction := NearestObstruction(world, ray, e.ID)
	playerDistance := vec.Distance(player.Position, ray.Position)

	// Игрок ближе всех препятствий; равенство считается перекрытием
	hitPlayer := playerDistance < obstruction
	if hitPlayer {
		actor.PlayerSpotted = true
	}
	return hitPlayer
}

// UpdatePosition двигает актёра к игроку. Возвращает true, если актёр вне
// дистанции остановки (даже если шаг был отменён столкновением).
func UpdatePosition(world WorldAPI, clock Clock, e *Entity) bool {
	actor, ok := e.Actor()
	if !ok {
		return false
	}

	player := world.Player()
	if player == nil {
		return false
	}

	moving := true
	distance := e.Position.Sub(player.Position)

	if mgl32.Abs(distance.X()) >= actor.MaxDistanceFromPlayer ||
		mgl32.Abs(distance.Z()) >= actor.MaxDistanceFromPlayer {
		oldPosition := e.Position
		target := mgl32.Vec3{player.Position.X(), actor.PlaneY, player.Position.Z()}
		e.Position = vec.Lerp(e.Position, target, actor.MovementSpeed*clock.FrameTime())

		if world.CheckCollision(e.Position, e.Size, e.ID) {
			// Откат целиком, без скольжения вдоль стены
			e.Position = oldPosition
		}
	} else {
		moving = false
	}

	e.RefreshBounds()
	return moving
}

// FireAtPlayer стреляет в игрока, если он виден в этом тике.
// Актёр всегда разворачивается к игроку; выстрел происходит, когда nextFire <= 0.
func FireAtPlayer(ctx *TickContext, e *Entity, nextFire float32) bool {
	actor, ok := e.Actor()
	if !ok {
		return false
	}

	if !TestPlayerHit(ctx.World, e) {
		return false
	}

	return fireAtPlayer(ctx, e, actor, nextFire)
}

func fireAtPlayer(ctx *TickContext, e *Entity, actor *Actor, nextFire float32) bool {
	player := ctx.World.Player()
	RotateTowards(ctx.Clock, e, player.Position)

	if nextFire > 0 {
		actor.NextFire -= ctx.Clock.FrameTime()
		return false
	}

	actor.Attacking = true
	ray := CreateRay(player, e)
	if ctx.Projectiles != nil {
		ctx.Projectiles.Create(ray, ProjectileSize, actor.Damage, e.ID, ProjectileTint)
	}
	actor.NextFire = actor.FireRate

	ctx.emit(Event{
		Type:     EventProjectileFired,
		EntityID: e.ID,
		SourceID: e.ID,
		Amount:   actor.Damage,
		Position: e.Position,
	})
	logging.Trace("Сущность %d выстрелила в игрока", e.ID)
	return true
}

// RotateTowards плавно поворачивает актёра вокруг Y к цели.
// Модель получает промежуточную ориентацию, а Rotation сразу хранит целевой угол.
func RotateTowards(clock Clock, e *Entity, target mgl32.Vec3) {
	actor, ok := e.Actor()
	if !ok {
		return
	}

	yaw := vec.YawTowards(e.Position, target)
	newRotation := mgl32.Vec3{0, yaw, 0}

	slerp := vec.SlerpEuler(e.Rotation, newRotation, actor.RotationSpeed*clock.FrameTime())
	actor.Transform = slerp.Mat4()
	e.Rotation = newRotation
}

// TakeDamage наносит урон актёру. Возвращает true, если урон применён.
// При здоровье <= 0 хитбокс уезжает на кладбище, а модель остаётся на месте для трупа.
func TakeDamage(events EventSink, e *Entity, amount int) bool {
	actor, ok := e.Actor()
	if !ok || actor.Dead {
		return false
	}

	actor.Health -= amount
	logging.Debug("Сущность %d получила %d урона", e.ID, amount)

	if events != nil {
		events.Emit(Event{
			Type:     EventActorDamaged,
			EntityID: e.ID,
			Amount:   amount,
			Health:   actor.Health,
			Position: e.Position,
		})
	}

	if actor.Health <= 0 {
		e.Box = graveyardBox()
		actor.Dead = true

		if events != nil {
			events.Emit(Event{
				Type:     EventActorDied,
				EntityID: e.ID,
				Health:   actor.Health,
				Position: e.Position,
			})
		}
		logging.Debug("Сущность %d погибла", e.ID)
	}
	return true
}

// EnemyBehavior поведение врага: заметить игрока, стрелять или подходить
type EnemyBehavior struct{}

// NewEnemyBehavior создаёт поведение врага
func NewEnemyBehavior() *EnemyBehavior {
	return &EnemyBehavior{}
}

// Update выполняет один тик актёра. Не-актёры игнорируются.
// Ошибки аниматора возвращаются, но шаг кадра выполняется всегда.
func (b *EnemyBehavior) Update(ctx *TickContext, e *Entity) error {
	actor, ok := e.Actor()
	if !ok {
		return nil
	}

	if actor.Animator == nil {
		return fmt.Errorf("сущность %d без аниматора: %w", e.ID, animation.ErrInvalidAnimationID)
	}

	var errs []error
	setAnimation := func(id animation.ClipID) {
		if _, err := actor.Animator.SetAnimation(id); err != nil {
			errs = append(errs, err)
		}
	}

	if actor.Dead {
		setAnimation(animation.Death)
	} else if TestPlayerHit(ctx.World, e) {
		switch {
		case fireAtPlayer(ctx, e, actor, actor.NextFire):
			setAnimation(animation.Attack)
		case UpdatePosition(ctx.World, ctx.Clock, e):
			setAnimation(animation.Move)
		default:
			setAnimation(animation.Idle)
		}
		actor.NextFire -= ctx.Clock.FrameTime()
	}

	actor.Pose = actor.Animator.Advance(actor.AnimationSpeed)

	if len(errs) > 0 {
		return fmt.Errorf("сущность %d: %w", e.ID, errors.Join(errs...))
	}
	return nil
}
