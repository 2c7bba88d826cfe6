package world

import (
	"errors"
	"fmt"
	"os"

	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoStart на карте нет стартовой клетки
	ErrNoStart = errors.New("tile map has no start tile")
	// ErrInvalidTileMap размеры карты не совпадают с данными
	ErrInvalidTileMap = errors.New("invalid tile map")
)

// EmptyTile пустая клетка в нумерации редактора карт
const EmptyTile = -1

// TileMap карта уровня в нумерации редактора карт (id шаблона - 1, пусто = -1).
// Клетка (x, y) становится сущностью в точке (x, 0, y).
type TileMap struct {
	Name   string  `yaml:"name"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Tiles  [][]int `yaml:"tiles"` // Height строк по Width клеток
}

// NewTileMap создаёт пустую карту
func NewTileMap(name string, width, height int) *TileMap {
	tiles := make([][]int, height)
	for y := range tiles {
		tiles[y] = make([]int, width)
		for x := range tiles[y] {
			tiles[y][x] = EmptyTile
		}
	}
	return &TileMap{Name: name, Width: width, Height: height, Tiles: tiles}
}

// Set ставит шаблон в клетку
func (m *TileMap) Set(x, y, templateID int) {
	m.Tiles[y][x] = templateID - 1
}

// Template возвращает id шаблона в клетке
func (m *TileMap) Template(x, y int) int {
	return entity.TemplateIDFromTiled(m.Tiles[y][x])
}

// Validate проверяет размеры и id шаблонов
func (m *TileMap) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("размер %dx%d: %w", m.Width, m.Height, ErrInvalidTileMap)
	}
	if len(m.Tiles) != m.Height {
		return fmt.Errorf("строк %d, ожидалось %d: %w", len(m.Tiles), m.Height, ErrInvalidTileMap)
	}
	for y, row := range m.Tiles {
		if len(row) != m.Width {
			return fmt.Errorf("строка %d: клеток %d, ожидалось %d: %w", y, len(row), m.Width, ErrInvalidTileMap)
		}
		for x := range row {
			if _, ok := entity.TemplateForTile(m.Template(x, y)); !ok {
				return fmt.Errorf("клетка (%d,%d): неизвестный тайл %d: %w", x, y, row[x], ErrInvalidTileMap)
			}
		}
	}
	return nil
}

// LoadTileMap читает карту из YAML-файла
func LoadTileMap(path string) (*TileMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение карты %s: %w", path, err)
	}

	var m TileMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("разбор карты %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("карта %s: %w", path, err)
	}
	return &m, nil
}

// PlayerTemplate параметры создаваемого игрока
type PlayerTemplate struct {
	Size   mgl32.Vec3
	Health int
	Weapon entity.Weapon
}

// DefaultPlayerTemplate возвращает параметры игрока по умолчанию
func DefaultPlayerTemplate() PlayerTemplate {
	return PlayerTemplate{
		Size:   mgl32.Vec3{0.5, 1.8, 0.5},
		Health: 100,
		Weapon: entity.Weapon{Damage: 5, FireRate: 0.5},
	}
}

// LoadOptions зависимости загрузки сцены
type LoadOptions struct {
	Options
	Loader assets.Loader
	Actor  entity.ActorConfig
	Player PlayerTemplate
}

// LoadScene создаёт сцену по карте. Сущности получают id подряд в порядке
// обхода строк, начиная с 1. Сущность, ресурсы которой не загрузились,
// пропускается целиком. Игрок ставится на стартовую клетку.
func LoadScene(m *TileMap, opts LoadOptions) (*Scene, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if opts.Name == "" {
		opts.Name = m.Name
	}
	scene := NewScene(opts.Options)

	var (
		nextID   uint32 = 1
		start    *mgl32.Vec3
		skipped  int
		loadErrs []error
	)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			templateID := m.Template(x, y)
			if templateID == entity.TemplateNone {
				continue
			}

			tpl, _ := entity.TemplateForTile(templateID)
			position := mgl32.Vec3{float32(x), 0, float32(y)}

			e, err := buildEntity(tpl, opts, position, nextID)
			if err != nil {
				skipped++
				loadErrs = append(loadErrs, fmt.Errorf("клетка (%d,%d): %w", x, y, err))
				logging.Warn("⚠️ Сущность в клетке (%d,%d) пропущена: %v", x, y, err)
				continue
			}
			nextID++

			if tpl.Kind == entity.KindStart && start == nil {
				p := position
				start = &p
			}
			if err := scene.Add(e); err != nil {
				return nil, err
			}
		}
	}

	if start == nil {
		return nil, fmt.Errorf("карта %q: %w", m.Name, ErrNoStart)
	}

	if scene.player == nil {
		scene.player = entity.NewPlayer(*start, opts.Player.Size, opts.Player.Health, opts.Player.Weapon)
	} else {
		scene.player.SetPosition(*start)
	}

	scene.BuildLevel()
	logging.Info("🗺️ Сцена %q загружена: %d сущностей, %d блоков, %d актёров, пропущено %d",
		scene.Name(), len(scene.entities), scene.level.Len(), scene.AliveActors(), skipped)
	if skipped > 0 {
		logging.Debug("Ошибки загрузки: %v", errors.Join(loadErrs...))
	}
	return scene, nil
}

func buildEntity(tpl entity.Template, opts LoadOptions, position mgl32.Vec3, id uint32) (*entity.Entity, error) {
	switch tpl.Kind {
	case entity.KindWall:
		return entity.NewWall(opts.Loader, tpl.TextureFileName, position, id)
	case entity.KindActor:
		return entity.NewEnemy(opts.Loader, opts.Actor, tpl.ModelFileName, position, id)
	case entity.KindItem:
		return entity.NewItem("item", position, id), nil
	case entity.KindStart, entity.KindEnd:
		return entity.NewMarker(tpl.Kind, position, id), nil
	default:
		return nil, fmt.Errorf("шаблон %v не создаёт сущностей", tpl.Kind)
	}
}
