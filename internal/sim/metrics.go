package sim

import (
	"time"

	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics метрики симуляции.
// Реализует entity.EventSink: выстрелы и смерти считаются по событиям ядра.
type Metrics struct {
	Ticks            prometheus.Counter
	TickDuration     prometheus.Histogram
	ProjectilesFired prometheus.Counter
	ActorDeaths      prometheus.Counter
	ActorsAlive      prometheus.Gauge
	TickErrors       prometheus.Counter
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_ticks_total",
			Help: "Количество выполненных тиков.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sim_tick_duration_seconds",
			Help:    "Длительность обработки тика.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		ProjectilesFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_projectiles_fired_total",
			Help: "Количество выстрелов.",
		}),
		ActorDeaths: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_actor_deaths_total",
			Help: "Количество погибших врагов.",
		}),
		ActorsAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_actors_alive",
			Help: "Живые враги после последнего тика.",
		}),
		TickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_tick_errors_total",
			Help: "Тики, в которых поведение сущностей вернуло ошибку.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Ticks, m.TickDuration, m.ProjectilesFired, m.ActorDeaths, m.ActorsAlive, m.TickErrors)
	}
	return m
}

// Emit учитывает событие ядра
func (m *Metrics) Emit(ev entity.Event) {
	switch ev.Type {
	case entity.EventProjectileFired:
		m.ProjectilesFired.Inc()
	case entity.EventActorDied:
		m.ActorDeaths.Inc()
	}
}

func (m *Metrics) observeTick(d time.Duration, alive int, failed bool) {
	m.Ticks.Inc()
	m.TickDuration.Observe(d.Seconds())
	m.ActorsAlive.Set(float64(alive))
	if failed {
		m.TickErrors.Inc()
	}
}
