// Package projectile реализует снаряды врагов: создание по запросу актёра,
// полёт, попадание и истечение времени жизни.
package projectile

import (
	"image/color"
	"math"

	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/physics"
	"github.com/annel0/fps-core/internal/vec"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/go-gl/mathgl/mgl32"
)

// Config параметры полёта снарядов
type Config struct {
	Speed    float32 `yaml:"speed"`    // Единиц в секунду
	Lifetime float32 `yaml:"lifetime"` // Секунд до исчезновения
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		Speed:    6.0,
		Lifetime: 4.0,
	}
}

// Projectile летящий снаряд
type Projectile struct {
	ID        uint64          `json:"id"`
	Position  mgl32.Vec3      `json:"position"`
	Direction mgl32.Vec3      `json:"direction"`
	Size      mgl32.Vec3      `json:"size"`
	Box       vec.BoundingBox `json:"-"`
	Damage    int             `json:"damage"`
	OwnerID   uint32          `json:"owner_id"`
	Tint      color.RGBA      `json:"tint"`
	Lifetime  float32         `json:"lifetime"` // Оставшееся время жизни
}

func (p *Projectile) moveTo(position mgl32.Vec3) {
	p.Position = position
	p.Box = vec.MakeBoundingBox(position, p.Size)
}

// Manager хранит снаряды сцены. Вызывается только из потока тика.
type Manager struct {
	cfg         Config
	projectiles []*Projectile
	nextID      uint64
}

// NewManager создаёт менеджер снарядов
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg,
		nextID: 1,
	}
}

// Create запускает снаряд из начала луча по его направлению
func (m *Manager) Create(ray vec.Ray, size mgl32.Vec3, damage int, ownerID uint32, tint color.RGBA) {
	p := &Projectile{
		ID:        m.nextID,
		Direction: vec.Normalize(ray.Direction),
		Size:      size,
		Damage:    damage,
		OwnerID:   ownerID,
		Tint:      tint,
		Lifetime:  m.cfg.Lifetime,
	}
	p.moveTo(ray.Position)
	m.nextID++
	m.projectiles = append(m.projectiles, p)

	logging.Trace("Снаряд %d создан владельцем %d", p.ID, ownerID)
}

// Count возвращает число летящих снарядов
func (m *Manager) Count() int {
	return len(m.projectiles)
}

// Projectiles возвращает копию летящих снарядов
func (m *Manager) Projectiles() []Projectile {
	out := make([]Projectile, len(m.projectiles))
	for i, p := range m.projectiles {
		out[i] = *p
	}
	return out
}

// Restore заменяет снаряды сохранёнными
func (m *Manager) Restore(saved []Projectile) {
	m.projectiles = m.projectiles[:0]
	for i := range saved {
		p := saved[i]
		p.moveTo(p.Position)
		m.projectiles = append(m.projectiles, &p)
		if p.ID >= m.nextID {
			m.nextID = p.ID + 1
		}
	}
}

// Clear удаляет все снаряды
func (m *Manager) Clear() {
	m.projectiles = nil
}

type hitTarget struct {
	distance float32
	player   bool
	entity   *entity.Entity
	level    bool
}

// Update двигает снаряды на speed*dt. Путь проверяется лучом, поэтому быстрый
// снаряд не пролетает сквозь тонкие препятствия. Цели в порядке приоритета
// при равном расстоянии: игрок, актёры, уровень.
func (m *Manager) Update(ctx *entity.TickContext) {
	dt := ctx.Clock.FrameTime()
	step := m.cfg.Speed * dt

	alive := m.projectiles[:0]
	for _, p := range m.projectiles {
		if m.advance(ctx, p, step, dt) {
			alive = append(alive, p)
		}
	}
	for i := len(alive); i < len(m.projectiles); i++ {
		m.projectiles[i] = nil
	}
	m.projectiles = alive
}

// advance возвращает false, если снаряд нужно удалить
func (m *Manager) advance(ctx *entity.TickContext, p *Projectile, step, dt float32) bool {
	ray := vec.Ray{Position: p.Position, Direction: p.Direction}

	if target, ok := m.nearestTarget(ctx.World, ray, p); ok && target.distance <= step {
		p.moveTo(ray.At(target.distance))
		m.applyHit(ctx, p, target)
		return false
	}

	p.moveTo(ray.At(step))
	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		if ctx.Events != nil {
			ctx.Events.Emit(entity.Event{
				Type:     entity.EventProjectileExpired,
				SourceID: p.OwnerID,
				Position: p.Position,
			})
		}
		logging.Trace("Снаряд %d исчез", p.ID)
		return false
	}
	return true
}

func (m *Manager) nearestTarget(world entity.WorldAPI, ray vec.Ray, p *Projectile) (hitTarget, bool) {
	best := hitTarget{distance: float32(math.Inf(1))}
	found := false

	if player := world.Player(); player != nil && !player.Dead && p.OwnerID != entity.PlayerID {
		if hit := physics.GetRayCollisionBox(ray, player.Box); hit.Hit {
			best = hitTarget{distance: hit.Distance, player: true}
			found = true
		}
	}

	for _, e := range world.Entities() {
		if e == nil || e.ID == entity.EmptyID || e.ID == p.OwnerID {
			continue
		}
		actor, ok := e.Actor()
		if !ok || actor.Dead {
			continue
		}
		if hit := e.RayHit(ray); hit.Hit && hit.Distance < best.distance {
			best = hitTarget{distance: hit.Distance, entity: e}
			found = true
		}
	}

	if d := world.NearestLevelHit(ray); d < best.distance {
		best = hitTarget{distance: d, level: true}
		found = true
	}

	return best, found
}

func (m *Manager) applyHit(ctx *entity.TickContext, p *Projectile, target hitTarget) {
	ev := entity.Event{
		Type:     entity.EventProjectileHit,
		SourceID: p.OwnerID,
		Amount:   p.Damage,
		Position: p.Position,
	}

	switch {
	case target.player:
		player := ctx.World.Player()
		ev.EntityID = entity.PlayerID
		if player.TakeDamage(p.Damage) && ctx.Events != nil {
			ctx.Events.Emit(entity.Event{
				Type:     entity.EventPlayerDamaged,
				EntityID: entity.PlayerID,
				SourceID: p.OwnerID,
				Amount:   p.Damage,
				Health:   player.Health,
				Position: player.Position,
			})
		}
		logging.Debug("Снаряд %d попал в игрока (здоровье %d)", p.ID, player.Health)
	case target.entity != nil:
		ev.EntityID = target.entity.ID
		entity.TakeDamage(ctx.Events, target.entity, p.Damage)
	case target.level:
		ev.Amount = 0
	}

	if ctx.Events != nil {
		ctx.Events.Emit(ev)
	}
}
