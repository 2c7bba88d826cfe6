package world

import (
	"math"

	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/physics"
	"github.com/annel0/fps-core/internal/vec"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/go-gl/mathgl/mgl32"
)

// Block статический блок геометрии уровня
type Block struct {
	ID       uint32          `json:"id"`
	Position mgl32.Vec3      `json:"position"`
	Size     mgl32.Vec3      `json:"size"`
	Box      vec.BoundingBox `json:"box"`
	Model    assets.Model    `json:"model"`
}

// Level неизменяемая геометрия уровня, собирается один раз при загрузке сцены
type Level struct {
	blocks []Block
}

// NewLevel строит уровень из стен. Остальные сущности игнорируются.
func NewLevel(entities []*entity.Entity) *Level {
	l := &Level{}
	for _, e := range entities {
		if e == nil || e.Kind() != entity.KindWall {
			continue
		}
		l.blocks = append(l.blocks, Block{
			ID:       e.ID,
			Position: e.Position,
			Size:     e.Size,
			Box:      vec.MakeBoundingBox(e.Position, e.Size),
			Model:    e.Model,
		})
	}
	return l
}

// Blocks возвращает копию блоков
func (l *Level) Blocks() []Block {
	out := make([]Block, len(l.blocks))
	copy(out, l.blocks)
	return out
}

// Len количество блоков
func (l *Level) Len() int {
	return len(l.blocks)
}

// Intersects проверяет пересечение коробки с любым блоком
func (l *Level) Intersects(box vec.BoundingBox) bool {
	for i := range l.blocks {
		if physics.CheckBoxCollision(box, l.blocks[i].Box) {
			return true
		}
	}
	return false
}

// NearestHit возвращает расстояние до ближайшего блока на луче или +Inf
func (l *Level) NearestHit(ray vec.Ray) float32 {
	nearest := float32(math.Inf(1))
	for i := range l.blocks {
		hit := physics.GetRayCollisionBox(ray, l.blocks[i].Box)
		if hit.Hit && hit.Distance < nearest {
			nearest = hit.Distance
		}
	}
	return nearest
}
