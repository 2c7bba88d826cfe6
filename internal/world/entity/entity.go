package entity

import (
	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/physics"
	"github.com/annel0/fps-core/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// EmptyID идентификатор пустого слота. Никогда не участвует в проверке попаданий.
const EmptyID uint32 = 0

// Kind представляет тип сущности
type Kind uint8

const (
	KindNone Kind = iota
	KindStart
	KindEnd
	KindWall
	KindActor
	KindItem
)

// String возвращает строковое представление типа
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindWall:
		return "wall"
	case KindActor:
		return "actor"
	case KindItem:
		return "item"
	default:
		return "unknown"
	}
}

// Payload данные конкретного варианта сущности.
// Реализации: Marker, *Wall, *Actor, *Item.
type Payload interface {
	kind() Kind
}

// Marker служебная точка карты без поведения (пусто, старт, выход)
type Marker struct {
	Kind Kind
}

func (m Marker) kind() Kind { return m.Kind }

// Wall статический блок уровня
type Wall struct{}

func (*Wall) kind() Kind { return KindWall }

// Item предмет на карте
type Item struct {
	Name string
}

func (*Item) kind() Kind { return KindItem }

// Entity представляет сущность сцены
type Entity struct {
	ID       uint32          // Уникальный идентификатор (0 - пустой слот)
	Position mgl32.Vec3      // Позиция центра
	Rotation mgl32.Vec3      // Углы Эйлера (x, y, z)
	Size     mgl32.Vec3      // Размер хитбокса
	Scale    float32         // Масштаб модели при отрисовке
	Box      vec.BoundingBox // Хитбокс, всегда выводится из Position и Size
	Model    assets.Model    // Ссылка на модель
	Texture  assets.Texture  // Ссылка на текстуру (стены)
	Payload  Payload         // Данные варианта
}

// Kind возвращает тип сущности по её данным
func (e *Entity) Kind() Kind {
	if e == nil || e.Payload == nil {
		return KindNone
	}
	return e.Payload.kind()
}

// Actor возвращает данные актёра, если сущность является актёром
func (e *Entity) Actor() (*Actor, bool) {
	if e == nil {
		return nil, false
	}
	actor, ok := e.Payload.(*Actor)
	return actor, ok && actor != nil
}

// SetPosition перемещает сущность и пересчитывает хитбокс.
// Хитбокс мёртвого актёра остаётся на кладбище.
func (e *Entity) SetPosition(position mgl32.Vec3) {
	e.Position = position
	e.RefreshBounds()
}

// RefreshBounds пересчитывает хитбокс из текущей позиции и размера
func (e *Entity) RefreshBounds() {
	if actor, ok := e.Actor(); ok && actor.Dead {
		e.Box = graveyardBox()
		return
	}
	e.Box = vec.MakeBoundingBox(e.Position, e.Size)
}

// Collidable сообщает, участвует ли сущность в столкновениях и лучах
func (e *Entity) Collidable() bool {
	if e == nil || e.ID == EmptyID {
		return false
	}

	switch p := e.Payload.(type) {
	case *Wall:
		return true
	case *Actor:
		return !p.Dead
	case *Item, Marker:
		return false
	default:
		return false
	}
}

// RayHit проверяет пересечение луча с хитбоксом сущности
func (e *Entity) RayHit(ray vec.Ray) physics.RayHit {
	if !e.Collidable() {
		return physics.RayHit{}
	}
	return physics.GetRayCollisionBox(ray, e.Box)
}

// NewMarker создаёт служебную точку карты
func NewMarker(kind Kind, position mgl32.Vec3, id uint32) *Entity {
	e := &Entity{
		ID:       id,
		Position: position,
		Size:     vec.Zero,
		Scale:    1.0,
		Payload:  Marker{Kind: kind},
	}
	e.RefreshBounds()
	return e
}

// NewItem создаёт предмет на карте
func NewItem(name string, position mgl32.Vec3, id uint32) *Entity {
	e := &Entity{
		ID:       id,
		Position: position,
		Size:     mgl32.Vec3{0.3, 0.3, 0.3},
		Scale:    1.0,
		Payload:  &Item{Name: name},
	}
	e.RefreshBounds()
	return e
}

// NewWall создаёт стену: куб 1x1x1 с текстурой
func NewWall(loader assets.Loader, textureFileName string, position mgl32.Vec3, id uint32) (*Entity, error) {
	texture, err := loader.LoadTexture(textureFileName)
	if err != nil {
		return nil, err
	}

	e := &Entity{
		ID:       id,
		Position: position,
		Size:     vec.One,
		Scale:    1.0,
		Model:    assets.CubeModel(texture),
		Texture:  texture,
		Payload:  &Wall{},
	}
	e.RefreshBounds()
	return e, nil
}
