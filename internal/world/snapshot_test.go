package world

import (
	"testing"

	"github.com/annel0/fps-core/internal/animation"
	"github.com/annel0/fps-core/internal/vec"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Captures(t *testing.T) {
	s := loadCorridor(t)
	require.NoError(t, s.Update())

	snap := s.Snapshot()
	assert.Equal(t, "corridor", snap.Scene)
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Len(t, snap.Entities, 21)
	assert.Equal(t, 100, snap.Player.Health)

	st, ok := snap.Entity(corridorEnemyID)
	require.True(t, ok)
	assert.Equal(t, "actor", st.Kind)
	assert.Equal(t, 15, st.Health)
	assert.True(t, st.Spotted)
	assert.InDelta(t, 8.0, st.NextFire, 1e-6)
	assert.Equal(t, 1, st.Frame)
}

func TestSnapshot_RestoreReplaysDeterministically(t *testing.T) {
	s := loadCorridor(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Update())
	}
	snap := s.Snapshot()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Update())
	}
	require.Equal(t, 95, s.Player().Health)
	after := s.Snapshot()

	require.NoError(t, s.Restore(snap))
	assert.Equal(t, 100, s.Player().Health)
	assert.Equal(t, uint64(3), s.TickNumber())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Update())
	}
	replayed := s.Snapshot()
	assert.Equal(t, after.Player, replayed.Player)

	want, _ := after.Entity(corridorEnemyID)
	got, _ := replayed.Entity(corridorEnemyID)
	assert.Equal(t, want, got)
}

func TestSnapshot_RestoreDeadActor(t *testing.T) {
	s := loadCorridor(t)
	_, err := s.DamageEntity(corridorEnemyID, 100)
	require.NoError(t, err)
	snap := s.Snapshot()

	fresh := loadCorridor(t)
	require.NoError(t, fresh.Restore(snap))

	enemy, _ := fresh.Entity(corridorEnemyID)
	actor, _ := enemy.Actor()
	assert.True(t, actor.Dead)
	assert.Equal(t, vec.MakeBoundingBox(entity.GraveyardPosition, vec.Zero), enemy.Box, "Хитбокс трупа на кладбище")
	assert.Equal(t, 0, fresh.AliveActors())
}

func TestSnapshot_RestoreMismatch(t *testing.T) {
	s := loadCorridor(t)
	snap := s.Snapshot()
	snap.Entities = append(snap.Entities, EntityState{ID: 999, Kind: "actor"})

	assert.ErrorIs(t, s.Restore(snap), ErrSnapshotMismatch)
	assert.ErrorIs(t, s.Restore(nil), ErrSnapshotMismatch)

	snap = s.Snapshot()
	for i := range snap.Entities {
		if snap.Entities[i].ID == corridorEnemyID {
			snap.Entities[i].Kind = "wall"
		}
	}
	assert.ErrorIs(t, s.Restore(snap), ErrSnapshotMismatch)
}

func TestSnapshot_RestoreRejectedLeavesSceneIntact(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(snap *Snapshot)
	}{
		{"Неизвестный клип", func(snap *Snapshot) {
			for i := range snap.Entities {
				if snap.Entities[i].ID == corridorEnemyID {
					snap.Entities[i].Clip = animation.ClipID(42)
				}
			}
		}},
		{"Не хватает сущности", func(snap *Snapshot) {
			snap.Entities = snap.Entities[:len(snap.Entities)-1]
		}},
		{"Повтор id", func(snap *Snapshot) {
			snap.Entities[len(snap.Entities)-1] = snap.Entities[1]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadCorridor(t)
			before := s.Snapshot()

			snap := s.Snapshot()
			snap.Tick = 77
			snap.Player.Health = 1
			for i := range snap.Entities {
				snap.Entities[i].Position = mgl32.Vec3{99, 99, 99}
			}
			tt.mutate(snap)

			assert.ErrorIs(t, s.Restore(snap), ErrSnapshotMismatch)

			after := s.Snapshot()
			assert.Equal(t, before.Entities, after.Entities, "Сцена не меняется")
			assert.Equal(t, before.Player, after.Player)
			assert.Equal(t, before.Tick, after.Tick)
		})
	}
}
