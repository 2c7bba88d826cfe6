package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/storage"
	"github.com/annel0/fps-core/internal/world"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrQueueFull очередь команд переполнена
	ErrQueueFull = errors.New("command queue full")
	// ErrStopped симуляция остановлена
	ErrStopped = errors.New("simulation stopped")
	// ErrNoRepo хранилище снимков не настроено
	ErrNoRepo = errors.New("snapshot repo not configured")
)

// Command выполняется в горутине симуляции перед тиком
type Command func(s *world.Scene) error

// frameTicker часы, которые нужно продвигать перед каждым тиком (world.WallClock)
type frameTicker interface {
	Tick() float32
}

type queued struct {
	cmd  Command
	done chan error // nil - результат никому не нужен
}

// Options параметры Runner
type Options struct {
	Scene            *world.Scene
	TickInterval     time.Duration
	QueueSize        int
	Repo             storage.SnapshotRepo
	SaveKey          string
	AutosaveInterval time.Duration // 0 - только финальное сохранение
	Metrics          *Metrics
	Tracer           trace.Tracer
	Logger           *logging.Logger
}

// Runner владеет сценой и крутит её с фиксированной частотой.
// Сцена изменяется только из горутины Run (или из Step в тестах);
// остальные горутины работают через команды и опубликованный снимок.
type Runner struct {
	scene    *world.Scene
	interval time.Duration
	commands chan queued
	repo     storage.SnapshotRepo
	saveKey  string
	autosave time.Duration
	metrics  *Metrics
	tracer   trace.Tracer
	logger   *logging.Logger

	mu       sync.RWMutex
	latest   *world.Snapshot
	lastSave time.Time
	stopped  bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRunner создаёт Runner
func NewRunner(opts Options) *Runner {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 30
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.SaveKey == "" {
		opts.SaveKey = "autosave"
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/annel0/fps-core/sim")
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetSimLogger()
	}

	r := &Runner{
		scene:    opts.Scene,
		interval: opts.TickInterval,
		commands: make(chan queued, opts.QueueSize),
		repo:     opts.Repo,
		saveKey:  opts.SaveKey,
		autosave: opts.AutosaveInterval,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		logger:   opts.Logger,
		stopCh:   make(chan struct{}),
	}
	r.latest = opts.Scene.Snapshot()
	return r
}

// Metrics метрики симуляции
func (r *Runner) Metrics() *Metrics { return r.metrics }

// Latest последний опубликованный снимок
func (r *Runner) Latest() *world.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Enqueue ставит команду в очередь без ожидания результата
func (r *Runner) Enqueue(cmd Command) error {
	return r.push(queued{cmd: cmd})
}

func (r *Runner) push(q queued) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return ErrStopped
	}

	select {
	case r.commands <- q:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do ставит команду в очередь и ждёт её выполнения
func (r *Runner) Do(ctx context.Context, cmd Command) error {
	done := make(chan error, 1)
	if err := r.push(queued{cmd: cmd, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-r.stopCh:
		// Команда могла выполниться в последнем Step
		select {
		case err := <-done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) drainCommands() {
	for {
		select {
		case q := <-r.commands:
			err := q.cmd(r.scene)
			if err != nil && q.done == nil {
				r.logger.Warn("команда: %v", err)
			}
			if q.done != nil {
				q.done <- err
			}
		default:
			return
		}
	}
}

// Step выполняет команды из очереди и один тик сцены
func (r *Runner) Step(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "sim.tick")
	defer span.End()

	r.drainCommands()

	if c, ok := r.scene.Clock().(frameTicker); ok {
		c.Tick()
	}

	start := time.Now()
	err := r.scene.Update()
	elapsed := time.Since(start)

	snap := r.scene.Snapshot()
	alive := r.scene.AliveActors()
	r.metrics.observeTick(elapsed, alive, err != nil)

	span.SetAttributes(
		attribute.Int64("sim.tick", int64(snap.Tick)),
		attribute.Int("sim.entities", len(snap.Entities)),
		attribute.Int("sim.projectiles", len(snap.Projectiles)),
		attribute.Int("sim.actors_alive", alive),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tick failed")
		r.logger.Debug("%v", err)
	}

	r.mu.Lock()
	r.latest = snap
	r.mu.Unlock()
	return err
}

// Save сохраняет последний снимок в слот key
func (r *Runner) Save(ctx context.Context, key string) error {
	if r.repo == nil {
		return ErrNoRepo
	}
	if key == "" {
		key = r.saveKey
	}

	snap := r.Latest()
	if err := r.repo.Save(ctx, key, snap); err != nil {
		return fmt.Errorf("сохранение тика %d: %w", snap.Tick, err)
	}

	r.mu.Lock()
	r.lastSave = time.Now()
	r.mu.Unlock()
	r.logger.Info("💾 Снимок тика %d сохранён в слот %s", snap.Tick, key)
	return nil
}

// Load читает слот key и применяет его к сцене перед следующим тиком
func (r *Runner) Load(ctx context.Context, key string) error {
	if r.repo == nil {
		return ErrNoRepo
	}
	if key == "" {
		key = r.saveKey
	}

	snap, err := r.repo.Load(ctx, key)
	if err != nil {
		return err
	}

	return r.Do(ctx, func(s *world.Scene) error {
		if err := s.Restore(snap); err != nil {
			return err
		}
		restored := s.Snapshot()
		r.mu.Lock()
		r.latest = restored
		r.mu.Unlock()
		r.logger.Info("📂 Снимок тика %d загружен из слота %s", snap.Tick, key)
		return nil
	})
}

func (r *Runner) autosaveDue() bool {
	if r.repo == nil || r.autosave <= 0 {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return time.Since(r.lastSave) >= r.autosave
}

// Run крутит тики до отмены ctx или до maxTicks тиков (0 - без ограничения).
// При выходе выполняет финальное сохранение.
func (r *Runner) Run(ctx context.Context, maxTicks uint64) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.mu.Lock()
	r.lastSave = time.Now()
	r.mu.Unlock()

	r.logger.Info("▶️ Симуляция %s запущена (%s на тик)", r.scene.Name(), r.interval)

	var ticks uint64
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			r.Step(ctx)
			ticks++

			if r.autosaveDue() {
				if err := r.Save(ctx, ""); err != nil {
					r.logger.Error("❌ Автосохранение: %v", err)
				}
			}
			if maxTicks > 0 && ticks >= maxTicks {
				break loop
			}
		}
	}

	r.stop()
	r.logger.Info("⏹️ Симуляция остановлена после %d тиков", ticks)

	if r.repo == nil {
		return nil
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Save(saveCtx, "")
}

// stop закрывает приём команд; оставшиеся в очереди отклоняются
func (r *Runner) stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()
		close(r.stopCh)
	})

	for {
		select {
		case q := <-r.commands:
			if q.done != nil {
				q.done <- ErrStopped
			}
		default:
			return
		}
	}
}
