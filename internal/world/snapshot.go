package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/annel0/fps-core/internal/animation"
	"github.com/annel0/fps-core/internal/vec"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/annel0/fps-core/internal/world/projectile"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrSnapshotMismatch снимок снят с другой сцены
var ErrSnapshotMismatch = errors.New("snapshot does not match scene")

// EntityState состояние сущности в снимке
type EntityState struct {
	ID        uint32           `json:"id"`
	Kind      string           `json:"kind"`
	Position  mgl32.Vec3       `json:"position"`
	Rotation  mgl32.Vec3       `json:"rotation"`
	Health    int              `json:"health,omitempty"`
	Dead      bool             `json:"dead,omitempty"`
	NextFire  float32          `json:"next_fire,omitempty"`
	Spotted   bool             `json:"spotted,omitempty"`
	Attacking bool             `json:"attacking,omitempty"`
	Clip      animation.ClipID `json:"clip,omitempty"`
	Frame     int              `json:"frame,omitempty"`
}

// PlayerState состояние игрока в снимке
type PlayerState struct {
	Position mgl32.Vec3 `json:"position"`
	Health   int        `json:"health"`
	Dead     bool       `json:"dead"`
	NextFire float32    `json:"next_fire"`
}

// Snapshot неизменяемый снимок сцены после тика
type Snapshot struct {
	Scene       string                  `json:"scene"`
	Tick        uint64                  `json:"tick"`
	TakenAt     time.Time               `json:"taken_at"`
	Player      PlayerState             `json:"player"`
	Entities    []EntityState           `json:"entities"`
	Projectiles []projectile.Projectile `json:"projectiles"`
}

// Entity возвращает состояние сущности по id
func (s *Snapshot) Entity(id uint32) (EntityState, bool) {
	for _, st := range s.Entities {
		if st.ID == id {
			return st, true
		}
	}
	return EntityState{}, false
}

// Snapshot снимает состояние сцены. Пустые слоты не попадают в снимок.
func (s *Scene) Snapshot() *Snapshot {
	snap := &Snapshot{
		Scene:       s.name,
		Tick:        s.tick,
		TakenAt:     time.Now().UTC(),
		Entities:    make([]EntityState, 0, len(s.entities)),
		Projectiles: s.projectiles.Projectiles(),
	}

	if s.player != nil {
		snap.Player = PlayerState{
			Position: s.player.Position,
			Health:   s.player.Health,
			Dead:     s.player.Dead,
			NextFire: s.player.Weapon.NextFire,
		}
	}

	for _, e := range s.entities {
		if e.ID == entity.EmptyID {
			continue
		}
		st := EntityState{
			ID:       e.ID,
			Kind:     e.Kind().String(),
			Position: e.Position,
			Rotation: e.Rotation,
		}
		if actor, ok := e.Actor(); ok {
			st.Health = actor.Health
			st.Dead = actor.Dead
			st.NextFire = actor.NextFire
			st.Spotted = actor.PlayerSpotted
			st.Attacking = actor.Attacking
			st.Clip = actor.Pose.Clip
			st.Frame = actor.Pose.Frame
		}
		snap.Entities = append(snap.Entities, st)
	}
	return snap
}

// Restore применяет снимок к сцене с теми же сущностями.
// Сцена не меняется, если снимок с ней не совпадает.
func (s *Scene) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("пустой снимок: %w", ErrSnapshotMismatch)
	}

	if len(snap.Entities) != len(s.byID) {
		return fmt.Errorf("сущностей в снимке %d, в сцене %d: %w", len(snap.Entities), len(s.byID), ErrSnapshotMismatch)
	}

	seen := make(map[uint32]struct{}, len(snap.Entities))
	for _, st := range snap.Entities {
		e, ok := s.byID[st.ID]
		if !ok {
			return fmt.Errorf("сущность %d: %w", st.ID, ErrSnapshotMismatch)
		}
		if _, dup := seen[st.ID]; dup {
			return fmt.Errorf("сущность %d повторяется: %w", st.ID, ErrSnapshotMismatch)
		}
		seen[st.ID] = struct{}{}
		if e.Kind().String() != st.Kind {
			return fmt.Errorf("сущность %d: тип %s, в снимке %s: %w", st.ID, e.Kind(), st.Kind, ErrSnapshotMismatch)
		}
		if actor, ok := e.Actor(); ok && actor.Animator != nil {
			if _, err := actor.Animator.Clip(st.Clip); err != nil {
				return fmt.Errorf("сущность %d: %w: %w", st.ID, ErrSnapshotMismatch, err)
			}
		}
	}

	for _, st := range snap.Entities {
		e := s.byID[st.ID]
		e.Position = st.Position
		e.Rotation = st.Rotation

		if actor, ok := e.Actor(); ok {
			actor.Health = st.Health
			actor.Dead = st.Dead
			actor.NextFire = st.NextFire
			actor.PlayerSpotted = st.Spotted
			actor.Attacking = st.Attacking
			actor.Transform = vec.QuatFromEuler(st.Rotation.Z(), st.Rotation.Y(), st.Rotation.X()).Mat4()

			pose := animation.Pose{Clip: st.Clip, Frame: st.Frame}
			if actor.Animator != nil {
				// Клип проверен выше
				_ = actor.Animator.Restore(pose)
				actor.Pose = actor.Animator.Pose()
			}
		}
		e.RefreshBounds()
	}

	if s.player != nil {
		s.player.Health = snap.Player.Health
		s.player.Dead = snap.Player.Dead
		s.player.Weapon.NextFire = snap.Player.NextFire
		s.player.SetPosition(snap.Player.Position)
	}

	s.projectiles.Restore(snap.Projectiles)
	s.tick = snap.Tick
	return nil
}
