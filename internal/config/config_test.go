package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/fps-core/internal/animation"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestDefault_MatchesDomainDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, entity.DefaultActorConfig(), cfg.ActorParams())
	assert.Equal(t, mgl32.Vec3{0.5, 1.8, 0.5}, cfg.PlayerParams().Size)
	assert.Equal(t, float32(6), cfg.ProjectileParams().Speed)
	assert.Equal(t, time.Second/30, cfg.Sim.TickInterval())
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
sim:
  tick_rate: 60
actor:
  health: 40
  size: [0.5, 2, 0.5]
storage:
  backend: badger
  path: /tmp/snaps
animations:
  idle:   {first_frame: 0, last_frame: 3, loopable: true, interruptible: true}
  move:   {first_frame: 4, last_frame: 9, loopable: true, interruptible: true}
  attack: {first_frame: 10, last_frame: 14}
  death:  {first_frame: 15, last_frame: 20}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Sim.TickRate)
	assert.Equal(t, 60, cfg.Sim.AutosaveSeconds, "Незаданные поля берутся из Default")
	assert.Equal(t, "badger", cfg.Storage.Backend)

	actor := cfg.ActorParams()
	assert.Equal(t, 40, actor.Health)
	assert.Equal(t, 5, actor.Damage)
	assert.Equal(t, mgl32.Vec3{0.5, 2, 0.5}, actor.Size)
	require.Len(t, actor.Clips, 4)
	assert.Equal(t, 10, actor.Clips[2].FirstFrame)
	assert.False(t, actor.Clips[2].Interruptible)
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := writeConfig(t, "level:\n  seed: 99\n")
	t.Setenv("GAME_CONFIG", path)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.GeneratorParams().Seed)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "sim: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage:\n  backend: mongo\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"Нулевая частота тиков", func(c *Config) { c.Sim.TickRate = 0 }},
		{"Пустая очередь команд", func(c *Config) { c.Sim.CommandQueue = 0 }},
		{"Враг без здоровья", func(c *Config) { c.Actor.Health = 0 }},
		{"Снаряд без скорости", func(c *Config) { c.Projectile.Speed = 0 }},
		{"Неполная таблица клипов", func(c *Config) { c.Animations.Idle = &animation.Clip{LastFrame: 1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestServerPorts(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("GAME_REST_PORT", "")
	assert.Equal(t, 8088, s.GetRESTPort())

	t.Setenv("GAME_REST_PORT", "9000")
	assert.Equal(t, 9000, s.GetRESTPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())

	t.Setenv("GAME_METRICS_PORT", "bad")
	assert.Equal(t, 2112, s.GetMetricsPort())
}

func TestAuthSecret(t *testing.T) {
	t.Setenv("GAME_JWT_SECRET", "from-env")
	a := AuthConfig{}
	assert.Equal(t, "from-env", a.Secret())

	a.JWTSecret = "from-file"
	assert.Equal(t, "from-file", a.Secret())
}
