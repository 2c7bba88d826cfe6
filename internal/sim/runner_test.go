package sim

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/storage"
	"github.com/annel0/fps-core/internal/world"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/annel0/fps-core/internal/world/projectile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const enemyID = 8

// arenaMap 5x3: стены по краям, старт (1,1), враг (3,1)
func arenaMap() *world.TileMap {
	m := world.NewTileMap("arena", 5, 3)
	for x := 0; x < 5; x++ {
		m.Set(x, 0, entity.TemplateWall1)
		m.Set(x, 2, entity.TemplateWall1)
	}
	m.Set(0, 1, entity.TemplateWall1)
	m.Set(4, 1, entity.TemplateWall1)
	m.Set(1, 1, entity.TemplateStart)
	m.Set(3, 1, entity.TemplateEnemy)
	return m
}

func quietLogger(t *testing.T) *logging.Logger {
	t.Helper()
	l, err := logging.NewLoggerWithOptions("sim", logging.Options{
		Console:         io.Discard,
		ConsoleLevel:    logging.ERROR,
		DisableFileSink: true,
	})
	require.NoError(t, err)
	return l
}

type fixture struct {
	runner  *Runner
	scene   *world.Scene
	metrics *Metrics
	repo    *storage.MemorySnapshotRepo
	spans   *tracetest.SpanRecorder
}

func newFixture(t *testing.T, queue int) fixture {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())

	scene, err := world.LoadScene(arenaMap(), world.LoadOptions{
		Options: world.Options{
			Clock:      world.FixedClock(1.0),
			Events:     metrics,
			Projectile: projectile.DefaultConfig(),
		},
		Loader: assets.NewMemoryCatalog("./assets/textures/wall1.png", "./assets/models/enemy.m3d"),
		Actor:  entity.DefaultActorConfig(),
		Player: world.DefaultPlayerTemplate(),
	})
	require.NoError(t, err)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	repo := storage.NewMemorySnapshotRepo()
	runner := NewRunner(Options{
		Scene:        scene,
		TickInterval: time.Millisecond,
		QueueSize:    queue,
		Repo:         repo,
		Metrics:      metrics,
		Tracer:       tp.Tracer("test"),
		Logger:       quietLogger(t),
	})
	return fixture{runner: runner, scene: scene, metrics: metrics, repo: repo, spans: spans}
}

func TestRunner_StepPublishesSnapshot(t *testing.T) {
	f := newFixture(t, 8)
	assert.Equal(t, uint64(0), f.runner.Latest().Tick)

	require.NoError(t, f.runner.Step(context.Background()))

	snap := f.runner.Latest()
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Equal(t, "arena", snap.Scene)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Ticks))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ActorsAlive))

	ended := f.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "sim.tick", ended[0].Name())
}

func TestRunner_FirstShotCounted(t *testing.T) {
	f := newFixture(t, 8)
	for i := 0; i < 6; i++ {
		require.NoError(t, f.runner.Step(context.Background()))
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ProjectilesFired))
	assert.Equal(t, 95, f.runner.Latest().Player.Health)
}

func TestRunner_EnqueueRunsBeforeTick(t *testing.T) {
	f := newFixture(t, 8)

	require.NoError(t, f.runner.Enqueue(func(s *world.Scene) error {
		_, err := s.DamageEntity(enemyID, 100)
		return err
	}))
	require.NoError(t, f.runner.Step(context.Background()))

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ActorDeaths))
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.ActorsAlive))

	st, ok := f.runner.Latest().Entity(enemyID)
	require.True(t, ok)
	assert.True(t, st.Dead)
}

func TestRunner_QueueFull(t *testing.T) {
	f := newFixture(t, 1)
	noop := func(*world.Scene) error { return nil }

	require.NoError(t, f.runner.Enqueue(noop))
	assert.ErrorIs(t, f.runner.Enqueue(noop), ErrQueueFull)
}

// stepUntil крутит тики, пока done не закроется. После каждого тика ждёт,
// чтобы тик с выполненной командой оказался последним.
func stepUntil(t *testing.T, r *Runner, done <-chan struct{}) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_ = r.Step(context.Background())
		select {
		case <-done:
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
	t.Fatal("команда не выполнилась")
}

func TestRunner_DoReturnsCommandResult(t *testing.T) {
	f := newFixture(t, 8)

	done := make(chan struct{})
	var result error
	go func() {
		defer close(done)
		result = f.runner.Do(context.Background(), func(s *world.Scene) error {
			_, err := s.DamageEntity(777, 1)
			return err
		})
	}()

	stepUntil(t, f.runner, done)
	assert.ErrorIs(t, result, world.ErrEntityNotFound)
}

func TestRunner_SaveAndLoad(t *testing.T) {
	f := newFixture(t, 8)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.runner.Step(ctx))
	}
	require.NoError(t, f.runner.Save(ctx, "quick"))

	for i := 0; i < 3; i++ {
		require.NoError(t, f.runner.Step(ctx))
	}
	require.Equal(t, 95, f.runner.Latest().Player.Health)

	done := make(chan struct{})
	var loadErr error
	go func() {
		defer close(done)
		loadErr = f.runner.Load(ctx, "quick")
	}()
	stepUntil(t, f.runner, done)
	require.NoError(t, loadErr)

	// Снимок применён перед тиком 4
	assert.Equal(t, 100, f.scene.Player().Health)
	assert.Equal(t, uint64(4), f.scene.TickNumber())

	assert.ErrorIs(t, f.runner.Load(ctx, "missing"), storage.ErrSnapshotNotFound)
}

func TestRunner_NoRepo(t *testing.T) {
	f := newFixture(t, 8)
	r := NewRunner(Options{Scene: f.scene, Logger: quietLogger(t)})

	assert.ErrorIs(t, r.Save(context.Background(), ""), ErrNoRepo)
	assert.ErrorIs(t, r.Load(context.Background(), ""), ErrNoRepo)
}

func TestRunner_RunStopsAfterMaxTicksAndSaves(t *testing.T) {
	f := newFixture(t, 8)
	ctx := context.Background()

	require.NoError(t, f.runner.Run(ctx, 4))

	snap, err := f.repo.Load(ctx, "autosave")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), snap.Tick)

	noop := func(*world.Scene) error { return nil }
	assert.ErrorIs(t, f.runner.Enqueue(noop), ErrStopped)
	assert.ErrorIs(t, f.runner.Do(ctx, noop), ErrStopped)
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t, 8)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- f.runner.Run(ctx, 0) }()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.Ticks) >= 2
	}, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run не завершился")
	}

	keys, err := f.repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"autosave"}, keys)
}
