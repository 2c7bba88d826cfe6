package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/annel0/fps-core/internal/animation"
	"gopkg.in/yaml.v3"
)

// ErrAssetNotFound файл ресурса отсутствует или не читается
var ErrAssetNotFound = errors.New("asset not found")

// Texture ссылка на загруженную текстуру
type Texture struct {
	Path string `json:"path"`
}

// Model ссылка на загруженную модель
type Model struct {
	Path    string  `json:"path"`              // Пусто для сгенерированных мешей
	Mesh    string  `json:"mesh"`              // Имя меша ("cube" для стен)
	Texture Texture `json:"texture,omitempty"` // Диффузная текстура
}

// CubeModel возвращает модель единичного куба с текстурой
func CubeModel(texture Texture) Model {
	return Model{Mesh: "cube", Texture: texture}
}

// Loader загружает ресурсы для сущностей.
// Ошибка означает, что сущность создавать нельзя.
type Loader interface {
	LoadModel(path string) (Model, error)
	LoadTexture(path string) (Texture, error)
	LoadAnimations(path string) ([]animation.Clip, error)
}

// clipFile формат файла описания анимаций <model>.clips.yaml
type clipFile struct {
	Idle   animation.Clip `yaml:"idle"`
	Move   animation.Clip `yaml:"move"`
	Attack animation.Clip `yaml:"attack"`
	Death  animation.Clip `yaml:"death"`
}

// FileCatalog проверяет наличие ресурсов в каталоге root и кэширует результат.
// Сами данные моделей не читаются: это задача рендера.
type FileCatalog struct {
	root string
	mu   sync.Mutex
	seen map[string]bool
}

// NewFileCatalog создаёт каталог ресурсов с корнем root
func NewFileCatalog(root string) *FileCatalog {
	return &FileCatalog{
		root: root,
		seen: make(map[string]bool),
	}
}

func (c *FileCatalog) resolve(path string) string {
	if filepath.IsAbs(path) || c.root == "" {
		return path
	}
	return filepath.Join(c.root, path)
}

func (c *FileCatalog) check(path string) error {
	if path == "" {
		return fmt.Errorf("пустой путь: %w", ErrAssetNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seen[path] {
		return nil
	}

	full := c.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		return fmt.Errorf("ресурс %s: %w", full, ErrAssetNotFound)
	}
	if info.IsDir() {
		return fmt.Errorf("ресурс %s является каталогом: %w", full, ErrAssetNotFound)
	}

	c.seen[path] = true
	return nil
}

// LoadModel проверяет наличие файла модели
func (c *FileCatalog) LoadModel(path string) (Model, error) {
	if err := c.check(path); err != nil {
		return Model{}, err
	}
	return Model{Path: path, Mesh: filepath.Base(path)}, nil
}

// LoadTexture проверяет наличие файла текстуры
func (c *FileCatalog) LoadTexture(path string) (Texture, error) {
	if err := c.check(path); err != nil {
		return Texture{}, err
	}
	return Texture{Path: path}, nil
}

// LoadAnimations читает таблицу клипов из <path>.clips.yaml.
// Если файла описания нет, используются клипы по умолчанию.
func (c *FileCatalog) LoadAnimations(path string) ([]animation.Clip, error) {
	if err := c.check(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.resolve(path) + ".clips.yaml")
	if errors.Is(err, os.ErrNotExist) {
		return animation.DefaultClips(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение клипов %s: %w", path, err)
	}

	var file clipFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("разбор клипов %s: %w", path, err)
	}

	file.Idle.ID = animation.Idle
	file.Move.ID = animation.Move
	file.Attack.ID = animation.Attack
	file.Death.ID = animation.Death

	clips := []animation.Clip{file.Idle, file.Move, file.Attack, file.Death}
	for _, clip := range clips {
		if err := clip.Validate(); err != nil {
			return nil, fmt.Errorf("клипы %s: %w", path, err)
		}
	}
	return clips, nil
}

// MemoryCatalog каталог ресурсов в памяти.
// Используется в тестах и при генерации уровней без файлов.
type MemoryCatalog struct {
	Files map[string]bool
	Clips []animation.Clip
}

// NewMemoryCatalog создаёт каталог из списка доступных путей
func NewMemoryCatalog(paths ...string) *MemoryCatalog {
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		files[p] = true
	}
	return &MemoryCatalog{Files: files, Clips: animation.DefaultClips()}
}

func (c *MemoryCatalog) check(path string) error {
	if !c.Files[path] {
		return fmt.Errorf("ресурс %s: %w", path, ErrAssetNotFound)
	}
	return nil
}

// LoadModel возвращает модель, если путь зарегистрирован
func (c *MemoryCatalog) LoadModel(path string) (Model, error) {
	if err := c.check(path); err != nil {
		return Model{}, err
	}
	return Model{Path: path, Mesh: filepath.Base(path)}, nil
}

// LoadTexture возвращает текстуру, если путь зарегистрирован
func (c *MemoryCatalog) LoadTexture(path string) (Texture, error) {
	if err := c.check(path); err != nil {
		return Texture{}, err
	}
	return Texture{Path: path}, nil
}

// LoadAnimations возвращает копию таблицы клипов каталога
func (c *MemoryCatalog) LoadAnimations(path string) ([]animation.Clip, error) {
	if err := c.check(path); err != nil {
		return nil, err
	}
	clips := make([]animation.Clip, len(c.Clips))
	copy(clips, c.Clips)
	return clips, nil
}
