package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/physics"
	"github.com/annel0/fps-core/internal/render"
	"github.com/annel0/fps-core/internal/vec"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/annel0/fps-core/internal/world/projectile"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrEntityNotFound сущность с таким id отсутствует в сцене
	ErrEntityNotFound = errors.New("entity not found")
	// ErrDuplicateID id уже занят
	ErrDuplicateID = errors.New("duplicate entity id")
	// ErrWeaponCooldown оружие игрока ещё перезаряжается
	ErrWeaponCooldown = errors.New("weapon cooldown")
	// ErrPlayerDead игрок мёртв
	ErrPlayerDead = errors.New("player is dead")
)

// Options зависимости сцены
type Options struct {
	Name       string
	Player     *entity.Player
	Clock      entity.Clock
	Events     entity.EventSink
	Renderer   render.Renderer
	Projectile projectile.Config
}

// Scene реестр сущностей и геометрии уровня.
// Все методы вызываются из одного потока тика.
type Scene struct {
	name        string
	entities    []*entity.Entity
	byID        map[uint32]*entity.Entity
	behaviors   map[entity.Kind]entity.Behavior
	level       *Level
	player      *entity.Player
	projectiles *projectile.Manager
	clock       entity.Clock
	events      entity.EventSink
	renderer    render.Renderer
	tick        uint64
}

// NewScene создаёт пустую сцену с поведением врагов по умолчанию
func NewScene(opts Options) *Scene {
	if opts.Clock == nil {
		opts.Clock = FixedClock(0)
	}
	if opts.Events == nil {
		opts.Events = entity.NopSink{}
	}
	if opts.Renderer == nil {
		opts.Renderer = render.Discard{}
	}

	s := &Scene{
		name:        opts.Name,
		byID:        make(map[uint32]*entity.Entity),
		behaviors:   make(map[entity.Kind]entity.Behavior),
		level:       &Level{},
		player:      opts.Player,
		projectiles: projectile.NewManager(opts.Projectile),
		clock:       opts.Clock,
		events:      opts.Events,
		renderer:    opts.Renderer,
	}
	s.RegisterBehavior(entity.KindActor, entity.NewEnemyBehavior())
	return s
}

// RegisterBehavior регистрирует поведение для типа сущности
func (s *Scene) RegisterBehavior(kind entity.Kind, behavior entity.Behavior) {
	s.behaviors[kind] = behavior
}

// Add добавляет сущность в конец списка. Пустые слоты (id 0) допускаются многократно.
func (s *Scene) Add(e *entity.Entity) error {
	if e == nil {
		return fmt.Errorf("пустая сущность")
	}
	if e.ID != entity.EmptyID {
		if _, exists := s.byID[e.ID]; exists {
			return fmt.Errorf("сущность %d: %w", e.ID, ErrDuplicateID)
		}
		s.byID[e.ID] = e
	}
	s.entities = append(s.entities, e)
	return nil
}

// BuildLevel собирает геометрию уровня из текущих стен
func (s *Scene) BuildLevel() {
	s.level = NewLevel(s.entities)
}

// Name имя сцены
func (s *Scene) Name() string { return s.name }

// Player возвращает игрока
func (s *Scene) Player() *entity.Player { return s.player }

// Entities возвращает упорядоченный список сущностей
func (s *Scene) Entities() []*entity.Entity { return s.entities }

// Level возвращает геометрию уровня
func (s *Scene) Level() *Level { return s.level }

// Projectiles возвращает менеджер снарядов
func (s *Scene) Projectiles() *projectile.Manager { return s.projectiles }

// Clock возвращает часы сцены
func (s *Scene) Clock() entity.Clock { return s.clock }

// TickNumber номер последнего выполненного тика
func (s *Scene) TickNumber() uint64 { return s.tick }

// Entity возвращает сущность по id
func (s *Scene) Entity(id uint32) (*entity.Entity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// AliveActors количество живых актёров
func (s *Scene) AliveActors() int {
	n := 0
	for _, e := range s.entities {
		if actor, ok := e.Actor(); ok && !actor.Dead && e.ID != entity.EmptyID {
			n++
		}
	}
	return n
}

// CheckCollision проверяет пересечение коробки с уровнем и сущностями, кроме excludeID
func (s *Scene) CheckCollision(position, size mgl32.Vec3, excludeID uint32) bool {
	box := vec.MakeBoundingBox(position, size)
	if s.level.Intersects(box) {
		return true
	}

	for _, e := range s.entities {
		if e.ID == excludeID || !e.Collidable() {
			continue
		}
		if physics.CheckBoxCollision(box, e.Box) {
			return true
		}
	}
	return false
}

// NearestLevelHit расстояние до ближайшего блока уровня на луче
func (s *Scene) NearestLevelHit(ray vec.Ray) float32 {
	return s.level.NearestHit(ray)
}

func (s *Scene) tickContext() *entity.TickContext {
	return &entity.TickContext{
		World:       s,
		Clock:       s.clock,
		Projectiles: s.projectiles,
		Events:      s.events,
	}
}

// Update выполняет один тик: отрисовка и обновление каждой сущности по порядку,
// затем снаряды, затем кадр уходит отрисовщику. Ошибки отдельных сущностей
// не прерывают тик и возвращаются вместе.
func (s *Scene) Update() error {
	s.tick++
	ctx := s.tickContext()
	frame := render.Frame{Tick: s.tick, Commands: make([]render.DrawCommand, 0, len(s.entities))}

	var errs []error
	for _, e := range s.entities {
		if e.ID == entity.EmptyID {
			continue
		}

		if cmd, ok := drawCommand(e); ok {
			frame.Commands = append(frame.Commands, cmd)
		}

		behavior, ok := s.behaviors[e.Kind()]
		if !ok {
			continue
		}
		if err := behavior.Update(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}

	if s.player != nil {
		s.player.Weapon.Cooldown(s.clock.FrameTime())
	}

	s.projectiles.Update(ctx)
	for _, p := range s.projectiles.Projectiles() {
		frame.Commands = append(frame.Commands, render.DrawCommand{
			Model:     assets.CubeModel(assets.Texture{}),
			Position:  p.Position,
			Scale:     p.Size.X(),
			Tint:      p.Tint,
			Transform: mgl32.Ident4(),
		})
	}

	if err := s.renderer.Render(frame); err != nil {
		errs = append(errs, fmt.Errorf("отрисовка кадра %d: %w", s.tick, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("тик %d: %w", s.tick, errors.Join(errs...))
	}
	return nil
}

func drawCommand(e *entity.Entity) (render.DrawCommand, bool) {
	if e.Model.Mesh == "" {
		return render.DrawCommand{}, false
	}

	cmd := render.DrawCommand{
		EntityID:  e.ID,
		Model:     e.Model,
		Position:  e.Position,
		Scale:     e.Scale,
		Tint:      render.White,
		Transform: mgl32.Ident4(),
	}

	switch p := e.Payload.(type) {
	case *entity.Actor:
		cmd.Transform = p.Transform
		cmd.Pose = p.Pose
		cmd.Animated = true
	case *entity.Wall, *entity.Item, entity.Marker:
	}
	return cmd, true
}

// DamageEntity наносит урон сущности по id (админ-команда)
func (s *Scene) DamageEntity(id uint32, amount int) (bool, error) {
	e, ok := s.Entity(id)
	if !ok {
		return false, fmt.Errorf("сущность %d: %w", id, ErrEntityNotFound)
	}
	return entity.TakeDamage(s.events, e, amount), nil
}

// ShotResult итог выстрела игрока
type ShotResult struct {
	Hit      bool    `json:"hit"`
	EntityID uint32  `json:"entity_id,omitempty"`
	Distance float32 `json:"distance,omitempty"`
	Killed   bool    `json:"killed,omitempty"`
}

// TestEntityHit ищет ближайшего живого актёра на луче
func (s *Scene) TestEntityHit(ray vec.Ray) (*entity.Entity, float32) {
	var nearest *entity.Entity
	distance := float32(math.Inf(1))

	for _, e := range s.entities {
		if e.ID == entity.EmptyID || e.Kind() != entity.KindActor {
			continue
		}
		if hit := e.RayHit(ray); hit.Hit && hit.Distance < distance {
			nearest = e
			distance = hit.Distance
		}
	}
	return nearest, distance
}

// TestLevelHit расстояние до ближайшего блока на луче
func (s *Scene) TestLevelHit(ray vec.Ray) float32 {
	return s.level.NearestHit(ray)
}

// FirePlayerWeapon стреляет из оружия игрока мгновенным лучом в направлении direction.
// Актёр получает урон, только если он строго ближе стены.
func (s *Scene) FirePlayerWeapon(direction mgl32.Vec3) (ShotResult, error) {
	player := s.player
	if player == nil || player.Dead {
		return ShotResult{}, ErrPlayerDead
	}
	if !player.Weapon.Ready() {
		return ShotResult{}, fmt.Errorf("осталось %.2f с: %w", player.Weapon.NextFire, ErrWeaponCooldown)
	}

	ray := vec.Ray{Position: player.Position, Direction: vec.Normalize(direction)}
	player.Weapon.NextFire = player.Weapon.FireRate

	s.events.Emit(entity.Event{
		Type:     entity.EventProjectileFired,
		EntityID: entity.PlayerID,
		SourceID: entity.PlayerID,
		Amount:   player.Weapon.Damage,
		Position: player.Position,
	})

	target, entityDistance := s.TestEntityHit(ray)
	if target == nil || entityDistance >= s.TestLevelHit(ray) {
		return ShotResult{}, nil
	}

	entity.TakeDamage(s.events, target, player.Weapon.Damage)
	actor, _ := target.Actor()
	logging.Debug("Игрок попал в сущность %d на расстоянии %.2f", target.ID, entityDistance)

	return ShotResult{
		Hit:      true,
		EntityID: target.ID,
		Distance: entityDistance,
		Killed:   actor.Dead,
	}, nil
}
