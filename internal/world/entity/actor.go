package entity

import (
	"fmt"

	"github.com/annel0/fps-core/internal/animation"
	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// GraveyardPosition точка за пределами карты, куда переносится хитбокс мёртвого актёра
var GraveyardPosition = mgl32.Vec3{-1000, -1000, -1000}

func graveyardBox() vec.BoundingBox {
	return vec.MakeBoundingBox(GraveyardPosition, vec.Zero)
}

// Actor данные динамической сущности: здоровье, бой, анимация
type Actor struct {
	Health        int     // Текущее здоровье
	Damage        int     // Урон снаряда
	Dead          bool    // Смерть необратима
	FireRate      float32 // Секунд между выстрелами
	NextFire      float32 // Обратный отсчёт до выстрела, может уйти в минус
	MovementSpeed float32
	RotationSpeed float32

	MaxDistanceFromPlayer float32 // Порог по каждой оси, ближе которого актёр не подходит
	SpotRadius            float32 // Дальше этого радиуса актёр не замечает игрока
	PlaneY                float32 // Высота плоскости, по которой ходят актёры
	AnimationSpeed        float32

	PlayerSpotted bool // Однажды заметив игрока, актёр проверяет видимость всегда
	Attacking     bool

	Animator  *animation.Animator
	Pose      animation.Pose // Поза после последнего шага аниматора
	Transform mgl32.Mat4     // Визуальная ориентация модели
}

func (*Actor) kind() Kind { return KindActor }

// ActorConfig параметры, из которых создаются актёры
type ActorConfig struct {
	Health                int
	Damage                int
	FireRate              float32
	InitialNextFire       float32
	MovementSpeed         float32
	RotationSpeed         float32
	MaxDistanceFromPlayer float32
	SpotRadius            float32
	PlaneY                float32
	AnimationSpeed        float32
	Scale                 float32
	Size                  mgl32.Vec3
	Clips                 []animation.Clip // Если пусто - берутся клипы из файла модели
}

// DefaultActorConfig возвращает параметры стандартного врага
func DefaultActorConfig() ActorConfig {
	return ActorConfig{
		Health:                15,
		Damage:                5,
		FireRate:              5.75,
		InitialNextFire:       10.0,
		MovementSpeed:         0.5,
		RotationSpeed:         2.0,
		MaxDistanceFromPlayer: 2.0,
		SpotRadius:            5.0,
		PlaneY:                0.0,
		AnimationSpeed:        1.0,
		Scale:                 0.5,
		Size:                  mgl32.Vec3{0.25, 1.1, 0.25},
	}
}

// NewEnemy создаёт врага из модели modelFileName.
// Если модель или анимации не загрузились, сущность не создаётся.
func NewEnemy(loader assets.Loader, cfg ActorConfig, modelFileName string, position mgl32.Vec3, id uint32) (*Entity, error) {
	if id == EmptyID {
		return nil, fmt.Errorf("актёр не может иметь id %d", EmptyID)
	}

	model, err := loader.LoadModel(modelFileName)
	if err != nil {
		return nil, err
	}

	clips := cfg.Clips
	if len(clips) == 0 {
		clips, err = loader.LoadAnimations(modelFileName)
		if err != nil {
			return nil, err
		}
	}

	animator, err := animation.NewAnimator(clips, animation.Idle)
	if err != nil {
		return nil, fmt.Errorf("аниматор для %s: %w", modelFileName, err)
	}

	actor := &Actor{
		Health:                cfg.Health,
		Damage:                cfg.Damage,
		FireRate:              cfg.FireRate,
		NextFire:              cfg.InitialNextFire,
		MovementSpeed:         cfg.MovementSpeed,
		RotationSpeed:         cfg.RotationSpeed,
		MaxDistanceFromPlayer: cfg.MaxDistanceFromPlayer,
		SpotRadius:            cfg.SpotRadius,
		PlaneY:                cfg.PlaneY,
		AnimationSpeed:        cfg.AnimationSpeed,
		Animator:              animator,
		Pose:                  animator.Pose(),
		Transform:             mgl32.Ident4(),
	}

	e := &Entity{
		ID:       id,
		Position: mgl32.Vec3{position.X(), cfg.PlaneY, position.Z()},
		Rotation: vec.Zero,
		Size:     cfg.Size,
		Scale:    cfg.Scale,
		Model:    model,
		Payload:  actor,
	}
	e.RefreshBounds()
	return e, nil
}
