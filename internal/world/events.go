package world

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/fps-core/internal/eventbus"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/world/entity"
)

// EventSource имя источника боевых событий в шине
const EventSource = "fps-core"

// MultiSink рассылает событие всем получателям по порядку
type MultiSink []entity.EventSink

// Emit передаёт событие каждому получателю
func (m MultiSink) Emit(ev entity.Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(ev)
		}
	}
}

// eventPriority смерть важнее урона, урон важнее выстрелов
func eventPriority(t entity.EventType) int {
	switch t {
	case entity.EventActorDied, entity.EventPlayerDamaged:
		return 7
	case entity.EventActorDamaged, entity.EventProjectileHit:
		return 5
	default:
		return 2
	}
}

// BusSink публикует события ядра в шину. Emit не блокирует тик: события
// складываются в очередь, а отдельная горутина отправляет их в шину.
// При переполненной очереди событие отбрасывается.
type BusSink struct {
	bus     eventbus.EventBus
	queue   chan entity.Event
	dropped uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewBusSink создаёт получателя с очередью размера capacity
func NewBusSink(bus eventbus.EventBus, capacity int) *BusSink {
	s := &BusSink{
		bus:   bus,
		queue: make(chan entity.Event, capacity),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit ставит событие в очередь
func (s *BusSink) Emit(ev entity.Event) {
	select {
	case s.queue <- ev:
	default:
		atomic.AddUint64(&s.dropped, 1)
	}
}

// Dropped количество отброшенных событий
func (s *BusSink) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Close дожидается отправки очереди. После Close вызывать Emit нельзя.
func (s *BusSink) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
		<-s.done
	})
}

func (s *BusSink) run() {
	defer close(s.done)

	for ev := range s.queue {
		env, err := eventbus.NewEnvelope(EventSource, string(ev.Type), eventPriority(ev.Type), ev)
		if err != nil {
			logging.Error("Ошибка упаковки события %s: %v", ev.Type, err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.bus.Publish(ctx, env); err != nil {
			logging.Warn("⚠️ Событие %s не опубликовано: %v", ev.Type, err)
		}
		cancel()
	}
}
