package world

import (
	"fmt"
	"math/rand"

	"github.com/annel0/fps-core/internal/util"
	"github.com/annel0/fps-core/internal/world/entity"
)

// GeneratorOptions параметры генерации арены
type GeneratorOptions struct {
	Name          string  `yaml:"name"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Seed          int64   `yaml:"seed"`
	NoiseScale    float64 `yaml:"noise_scale"`    // Масштаб шума (меньше - крупнее пятна стен)
	WallThreshold float64 `yaml:"wall_threshold"` // Выше этого значения шума ставится стена
	EnemyChance   float64 `yaml:"enemy_chance"`   // Вероятность врага в свободной клетке
	ItemChance    float64 `yaml:"item_chance"`
	SafeRadius    int     `yaml:"safe_radius"` // Без врагов вокруг старта (по каждой оси)
}

// DefaultGeneratorOptions возвращает параметры генерации по умолчанию
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		Name:          "arena",
		Width:         16,
		Height:        16,
		Seed:          1,
		NoiseScale:    0.15,
		WallThreshold: 0.62,
		EnemyChance:   0.04,
		ItemChance:    0.01,
		SafeRadius:    3,
	}
}

// GenerateTileMap строит арену: стены по периметру, внутренние стены по шуму
// Перлина, старт в первой свободной клетке, выход в последней, враги и
// предметы случайно. Один и тот же сид всегда даёт одну и ту же карту.
func GenerateTileMap(opts GeneratorOptions) (*TileMap, error) {
	if opts.Width < 3 || opts.Height < 3 {
		return nil, fmt.Errorf("арена %dx%d меньше 3x3: %w", opts.Width, opts.Height, ErrInvalidTileMap)
	}

	m := NewTileMap(opts.Name, opts.Width, opts.Height)
	noise := util.NewNoise(opts.Seed)
	rng := rand.New(rand.NewSource(opts.Seed))

	for y := 0; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			if x == 0 || y == 0 || x == opts.Width-1 || y == opts.Height-1 {
				m.Set(x, y, entity.TemplateWall1)
				continue
			}
			if noise.Noise2D(float64(x)*opts.NoiseScale, float64(y)*opts.NoiseScale) > opts.WallThreshold {
				m.Set(x, y, entity.TemplateWall2)
			}
		}
	}

	startX, startY, ok := findFree(m, 1, 1, 1)
	if !ok {
		return nil, fmt.Errorf("арена без свободных клеток (сид %d): %w", opts.Seed, ErrNoStart)
	}
	m.Set(startX, startY, entity.TemplateStart)

	if endX, endY, ok := findFree(m, opts.Width-2, opts.Height-2, -1); ok {
		m.Set(endX, endY, entity.TemplateEnd)
	}

	for y := 1; y < opts.Height-1; y++ {
		for x := 1; x < opts.Width-1; x++ {
			if m.Template(x, y) != entity.TemplateNone {
				continue
			}
			roll := rng.Float64()
			switch {
			case roll < opts.EnemyChance && !nearCell(x, y, startX, startY, opts.SafeRadius):
				m.Set(x, y, entity.TemplateEnemy)
			case roll < opts.EnemyChance+opts.ItemChance:
				m.Set(x, y, entity.TemplateItem)
			}
		}
	}

	return m, nil
}

// findFree ищет пустую клетку, обходя строки от (x, y) с шагом step
func findFree(m *TileMap, x, y, step int) (int, int, bool) {
	for cy := y; cy > 0 && cy < m.Height-1; cy += step {
		for cx := x; cx > 0 && cx < m.Width-1; cx += step {
			if m.Template(cx, cy) == entity.TemplateNone {
				return cx, cy, true
			}
		}
		if step > 0 {
			x = 1
		} else {
			x = m.Width - 2
		}
	}
	return 0, 0, false
}

func nearCell(x, y, cx, cy, radius int) bool {
	dx, dy := x-cx, y-cy
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= radius && dy <= radius
}
