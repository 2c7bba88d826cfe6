package entity

import (
	"math"

	"github.com/annel0/fps-core/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// PlayerID идентификатор игрока как владельца снарядов.
// Не пересекается с id сущностей сцены.
const PlayerID uint32 = math.MaxUint32

// Weapon оружие игрока с мгновенным попаданием
type Weapon struct {
	Damage   int
	FireRate float32 // Секунд между выстрелами
	NextFire float32
}

// Ready сообщает, можно ли стрелять
func (w *Weapon) Ready() bool {
	return w.NextFire <= 0
}

// Cooldown уменьшает обратный отсчёт на dt
func (w *Weapon) Cooldown(dt float32) {
	if w.NextFire > 0 {
		w.NextFire -= dt
	}
}

// Player представляет игрока. Позицией управляет слой ввода.
type Player struct {
	Position mgl32.Vec3
	Size     mgl32.Vec3
	Box      vec.BoundingBox
	Health   int
	Dead     bool
	Weapon   Weapon
}

// NewPlayer создаёт игрока в указанной позиции
func NewPlayer(position, size mgl32.Vec3, health int, weapon Weapon) *Player {
	p := &Player{
		Size:   size,
		Health: health,
		Weapon: weapon,
	}
	p.SetPosition(position)
	return p
}

// SetPosition перемещает игрока и пересчитывает хитбокс
func (p *Player) SetPosition(position mgl32.Vec3) {
	p.Position = position
	if p.Dead {
		p.Box = graveyardBox()
		return
	}
	p.Box = vec.MakeBoundingBox(position, p.Size)
}

// TakeDamage отнимает здоровье. Возвращает true, если урон был применён.
func (p *Player) TakeDamage(amount int) bool {
	if p.Dead {
		return false
	}

	p.Health -= amount
	if p.Health <= 0 {
		p.Dead = true
		p.Box = graveyardBox()
	}
	return true
}
