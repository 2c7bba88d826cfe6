package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type damagePayload struct {
	EntityID uint32 `json:"entity_id"`
	Amount   int    `json:"amount"`
}

func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope("sim", "ActorDamaged", 3, damagePayload{EntityID: 5, Amount: 10})
	require.NoError(t, err)

	_, err = uuid.Parse(ev.ID)
	assert.NoError(t, err, "ID должен быть UUID")
	assert.Equal(t, 1, ev.Version)

	var decoded damagePayload
	require.NoError(t, ev.Decode(&decoded))
	assert.Equal(t, damagePayload{EntityID: 5, Amount: 10}, decoded)
}

func TestMemoryBus_FilterAndOrder(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []string
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{"ActorDied", "ActorDamaged"}}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	for _, typ := range []string{"ActorDamaged", "ProjectileFired", "ActorDied"} {
		ev, err := NewEnvelope("sim", typ, 5, nil)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"ActorDamaged", "ActorDied"}, got)
	mu.Unlock()
	assert.Equal(t, uint64(3), bus.Metrics().Published)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	var count int
	var mu sync.Mutex
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	ev, _ := NewEnvelope("sim", "ActorDied", 5, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))

	assert.Eventually(t, func() bool { return bus.Metrics().InFlight == 0 }, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, 0, count)
	mu.Unlock()
}

func TestMemoryBus_Closed(t *testing.T) {
	bus := NewMemoryBus(1)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	ev, _ := NewEnvelope("sim", "ActorDied", 5, nil)
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrClosed)
}

type staticBus struct {
	stats Stats
}

func (b *staticBus) Publish(context.Context, *Envelope) error { return nil }
func (b *staticBus) Subscribe(context.Context, Filter, Handler) (Subscription, error) {
	return nil, nil
}
func (b *staticBus) Metrics() Stats { return b.stats }
func (b *staticBus) Close() error   { return nil }

func TestMetricsExporter_Collect(t *testing.T) {
	bus := &staticBus{stats: Stats{Published: 5, Dropped: 1, InFlight: 2}}
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	me.Collect()
	bus.stats.Published = 8
	me.Collect()

	assert.Equal(t, 8.0, testutil.ToFloat64(me.published))
	assert.Equal(t, 1.0, testutil.ToFloat64(me.dropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(me.inflight))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "combat.ActorDied", Subject("ActorDied"))
}

func TestGlobalBus(t *testing.T) {
	prev := Global()
	defer Init(prev)

	bus := NewMemoryBus(4)
	defer bus.Close()

	Init(bus)
	assert.Same(t, bus, Global())

	Init(nil)
	assert.Nil(t, Global())
}
