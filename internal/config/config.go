package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/fps-core/internal/animation"
	"github.com/annel0/fps-core/internal/world"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/annel0/fps-core/internal/world/projectile"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig значения конфигурации недопустимы
var ErrInvalidConfig = errors.New("invalid config")

// Vec3 вектор в YAML записывается списком [x, y, z]
type Vec3 [3]float32

// Mgl переводит в mgl32.Vec3
func (v Vec3) Mgl() mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[1], v[2]}
}

// Config корневая структура конфигурации симуляции
type Config struct {
	Sim        SimConfig        `yaml:"sim"`
	Actor      ActorConfig      `yaml:"actor"`
	Animations AnimationsConfig `yaml:"animations"`
	Projectile ProjectileConfig `yaml:"projectile"`
	Player     PlayerConfig     `yaml:"player"`
	Level      LevelConfig      `yaml:"level"`
	Assets     AssetsConfig     `yaml:"assets"`
	Storage    StorageConfig    `yaml:"storage"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SimConfig struct {
	TickRate        int     `yaml:"tick_rate"` // Тиков в секунду
	AutosaveSeconds int     `yaml:"autosave_seconds"`
	MaxStepSeconds  float32 `yaml:"max_step_seconds"` // Ограничение dt после долгих пауз
	CommandQueue    int     `yaml:"command_queue"`
}

// TickInterval период тика
func (s SimConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

type ActorConfig struct {
	Health                int     `yaml:"health"`
	Damage                int     `yaml:"damage"`
	FireRate              float32 `yaml:"fire_rate"`
	InitialNextFire       float32 `yaml:"initial_next_fire"`
	MovementSpeed         float32 `yaml:"movement_speed"`
	RotationSpeed         float32 `yaml:"rotation_speed"`
	MaxDistanceFromPlayer float32 `yaml:"max_distance_from_player"`
	SpotRadius            float32 `yaml:"spot_radius"`
	PlaneY                float32 `yaml:"plane_y"`
	AnimationSpeed        float32 `yaml:"animation_speed"`
	Size                  Vec3    `yaml:"size"`
	Scale                 float32 `yaml:"scale"`
}

// AnimationsConfig таблица клипов врага. Пустая таблица - клипы из файла модели.
type AnimationsConfig struct {
	Idle   *animation.Clip `yaml:"idle"`
	Move   *animation.Clip `yaml:"move"`
	Attack *animation.Clip `yaml:"attack"`
	Death  *animation.Clip `yaml:"death"`
}

type ProjectileConfig struct {
	Speed    float32 `yaml:"speed"`
	Lifetime float32 `yaml:"lifetime"`
}

type PlayerConfig struct {
	Size           Vec3    `yaml:"size"`
	Health         int     `yaml:"health"`
	WeaponDamage   int     `yaml:"weapon_damage"`
	WeaponFireRate float32 `yaml:"weapon_fire_rate"`
}

type LevelConfig struct {
	MapPath       string  `yaml:"map_path"` // Пусто - арена генерируется
	Name          string  `yaml:"name"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Seed          int64   `yaml:"seed"`
	NoiseScale    float64 `yaml:"noise_scale"`
	WallThreshold float64 `yaml:"wall_threshold"`
	EnemyChance   float64 `yaml:"enemy_chance"`
	ItemChance    float64 `yaml:"item_chance"`
	SafeRadius    int     `yaml:"safe_radius"`
}

type AssetsConfig struct {
	Root string `yaml:"root"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend"` // memory | badger | redis | maria
	Path      string `yaml:"path"`    // Каталог badger
	RedisAddr string `yaml:"redis_addr"`
	MariaDSN  string `yaml:"maria_dsn"`
	Key       string `yaml:"key"` // Имя слота автосохранения
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // Пусто - in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  int    `yaml:"token_ttl_hours"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Dir       string `yaml:"dir"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	actor := entity.DefaultActorConfig()
	player := world.DefaultPlayerTemplate()
	proj := projectile.DefaultConfig()
	gen := world.DefaultGeneratorOptions()

	return &Config{
		Sim: SimConfig{TickRate: 30, AutosaveSeconds: 60, MaxStepSeconds: 0.25, CommandQueue: 64},
		Actor: ActorConfig{
			Health:                actor.Health,
			Damage:                actor.Damage,
			FireRate:              actor.FireRate,
			InitialNextFire:       actor.InitialNextFire,
			MovementSpeed:         actor.MovementSpeed,
			RotationSpeed:         actor.RotationSpeed,
			MaxDistanceFromPlayer: actor.MaxDistanceFromPlayer,
			SpotRadius:            actor.SpotRadius,
			PlaneY:                actor.PlaneY,
			AnimationSpeed:        actor.AnimationSpeed,
			Size:                  Vec3{actor.Size.X(), actor.Size.Y(), actor.Size.Z()},
			Scale:                 actor.Scale,
		},
		Projectile: ProjectileConfig{Speed: proj.Speed, Lifetime: proj.Lifetime},
		Player: PlayerConfig{
			Size:           Vec3{player.Size.X(), player.Size.Y(), player.Size.Z()},
			Health:         player.Health,
			WeaponDamage:   player.Weapon.Damage,
			WeaponFireRate: player.Weapon.FireRate,
		},
		Level: LevelConfig{
			Name:          gen.Name,
			Width:         gen.Width,
			Height:        gen.Height,
			Seed:          gen.Seed,
			NoiseScale:    gen.NoiseScale,
			WallThreshold: gen.WallThreshold,
			EnemyChance:   gen.EnemyChance,
			ItemChance:    gen.ItemChance,
			SafeRadius:    gen.SafeRadius,
		},
		Assets:    AssetsConfig{Root: "."},
		Storage:   StorageConfig{Backend: "memory", Path: "data/snapshots", Key: "autosave"},
		EventBus:  EventBusConfig{Stream: "COMBAT", Retention: 24, Buffer: 1024},
		Auth:      AuthConfig{TokenTTL: 24},
		Telemetry: TelemetryConfig{ServiceName: "fps-core"},
		Logging:   LoggingConfig{Level: "info", FileLevel: "trace", Dir: "logs"},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GAME_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Secret возвращает секрет из конфига или из GAME_JWT_SECRET
func (a *AuthConfig) Secret() string {
	if a.JWTSecret != "" {
		return a.JWTSecret
	}
	return os.Getenv("GAME_JWT_SECRET")
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", берётся путь из GAME_CONFIG; без него возвращается Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("конфигурация %s: %w", path, err)
	}
	return cfg, nil
}

// Validate проверяет значения
func (c *Config) Validate() error {
	if c.Sim.TickRate <= 0 {
		return fmt.Errorf("sim.tick_rate = %d: %w", c.Sim.TickRate, ErrInvalidConfig)
	}
	if c.Sim.CommandQueue <= 0 {
		return fmt.Errorf("sim.command_queue = %d: %w", c.Sim.CommandQueue, ErrInvalidConfig)
	}
	if c.Actor.Health <= 0 {
		return fmt.Errorf("actor.health = %d: %w", c.Actor.Health, ErrInvalidConfig)
	}
	if c.Projectile.Speed <= 0 || c.Projectile.Lifetime <= 0 {
		return fmt.Errorf("projectile: скорость и время жизни должны быть > 0: %w", ErrInvalidConfig)
	}
	if _, err := c.Clips(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case "memory", "badger", "redis", "maria":
	default:
		return fmt.Errorf("storage.backend = %q: %w", c.Storage.Backend, ErrInvalidConfig)
	}
	return nil
}

// Clips возвращает таблицу клипов из конфигурации или nil, если она не задана
func (c *Config) Clips() ([]animation.Clip, error) {
	a := c.Animations
	if a.Idle == nil && a.Move == nil && a.Attack == nil && a.Death == nil {
		return nil, nil
	}
	if a.Idle == nil || a.Move == nil || a.Attack == nil || a.Death == nil {
		return nil, fmt.Errorf("animations: нужны все четыре клипа: %w", ErrInvalidConfig)
	}

	clips := []animation.Clip{*a.Idle, *a.Move, *a.Attack, *a.Death}
	for i := range clips {
		clips[i].ID = animation.ClipID(i)
		if err := clips[i].Validate(); err != nil {
			return nil, fmt.Errorf("animations: %v: %w", err, ErrInvalidConfig)
		}
	}
	return clips, nil
}

// ActorParams параметры создания врагов
func (c *Config) ActorParams() entity.ActorConfig {
	clips, _ := c.Clips()
	a := c.Actor
	return entity.ActorConfig{
		Health:                a.Health,
		Damage:                a.Damage,
		FireRate:              a.FireRate,
		InitialNextFire:       a.InitialNextFire,
		MovementSpeed:         a.MovementSpeed,
		RotationSpeed:         a.RotationSpeed,
		MaxDistanceFromPlayer: a.MaxDistanceFromPlayer,
		SpotRadius:            a.SpotRadius,
		PlaneY:                a.PlaneY,
		AnimationSpeed:        a.AnimationSpeed,
		Size:                  a.Size.Mgl(),
		Scale:                 a.Scale,
		Clips:                 clips,
	}
}

// PlayerParams параметры создания игрока
func (c *Config) PlayerParams() world.PlayerTemplate {
	return world.PlayerTemplate{
		Size:   c.Player.Size.Mgl(),
		Health: c.Player.Health,
		Weapon: entity.Weapon{Damage: c.Player.WeaponDamage, FireRate: c.Player.WeaponFireRate},
	}
}

// ProjectileParams параметры снарядов
func (c *Config) ProjectileParams() projectile.Config {
	return projectile.Config{Speed: c.Projectile.Speed, Lifetime: c.Projectile.Lifetime}
}

// GeneratorParams параметры генерации арены
func (c *Config) GeneratorParams() world.GeneratorOptions {
	l := c.Level
	return world.GeneratorOptions{
		Name:          l.Name,
		Width:         l.Width,
		Height:        l.Height,
		Seed:          l.Seed,
		NoiseScale:    l.NoiseScale,
		WallThreshold: l.WallThreshold,
		EnemyChance:   l.EnemyChance,
		ItemChance:    l.ItemChance,
		SafeRadius:    l.SafeRadius,
	}
}
