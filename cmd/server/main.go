package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/fps-core/internal/api"
	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/auth"
	"github.com/annel0/fps-core/internal/config"
	"github.com/annel0/fps-core/internal/eventbus"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/observability"
	"github.com/annel0/fps-core/internal/render"
	"github.com/annel0/fps-core/internal/sim"
	"github.com/annel0/fps-core/internal/storage"
	"github.com/annel0/fps-core/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (по умолчанию $GAME_CONFIG)")
	maxTicks := flag.Uint64("ticks", 0, "Остановиться после N тиков (0 - до сигнала)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logOpts, err := loggingOptions(cfg.Logging)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	if err := logging.InitDefaultLoggerWithOptions("server", logOpts); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	logging.ConfigureLoggerManager(logOpts)
	defer logging.GetLoggerManager().CloseAll()

	if err := run(cfg, *maxTicks); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func loggingOptions(lc config.LoggingConfig) (logging.Options, error) {
	opts := logging.DefaultOptions()
	if lc.Dir != "" {
		opts.Dir = lc.Dir
	}
	if lc.Level != "" {
		level, err := logging.ParseLevel(lc.Level)
		if err != nil {
			return opts, err
		}
		opts.ConsoleLevel = level
	}
	if lc.FileLevel != "" {
		level, err := logging.ParseLevel(lc.FileLevel)
		if err != nil {
			return opts, err
		}
		opts.FileLevel = level
	}
	return opts, nil
}

func run(cfg *config.Config, maxTicks uint64) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🎮 Запуск FPS симуляции...")

	// === НАБЛЮДАЕМОСТЬ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// === ШИНА СОБЫТИЙ ===
	bus, err := openEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()
	eventbus.Init(bus)
	defer eventbus.Init(nil)

	listener, err := eventbus.StartLoggingListener(ctx, bus, logging.GetComponentLogger("events"))
	if err != nil {
		return fmt.Errorf("подписка логгера событий: %w", err)
	}
	defer listener.Unsubscribe()

	exporter := eventbus.NewMetricsExporter(bus, registry)
	exporter.Start()
	defer exporter.Stop()

	busSink := world.NewBusSink(bus, cfg.EventBus.Buffer)
	defer busSink.Close()
	simMetrics := sim.NewMetrics(registry)

	// === СЦЕНА ===
	tileMap, err := loadTileMap(cfg)
	if err != nil {
		return err
	}

	scene, err := world.LoadScene(tileMap, world.LoadOptions{
		Options: world.Options{
			Clock:      world.NewWallClock(time.Duration(cfg.Sim.MaxStepSeconds * float32(time.Second))),
			Events:     world.MultiSink{busSink, simMetrics},
			Renderer:   render.LogRenderer{Logger: logging.GetComponentLogger("render")},
			Projectile: cfg.ProjectileParams(),
		},
		Loader: assets.NewFileCatalog(cfg.Assets.Root),
		Actor:  cfg.ActorParams(),
		Player: cfg.PlayerParams(),
	})
	if err != nil {
		return fmt.Errorf("загрузка сцены: %w", err)
	}

	// === ХРАНИЛИЩЕ ===
	repo, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("хранилище снимков: %w", err)
	}
	defer repo.Close()

	runner := sim.NewRunner(sim.Options{
		Scene:            scene,
		TickInterval:     cfg.Sim.TickInterval(),
		QueueSize:        cfg.Sim.CommandQueue,
		Repo:             repo,
		SaveKey:          cfg.Storage.Key,
		AutosaveInterval: time.Duration(cfg.Sim.AutosaveSeconds) * time.Second,
		Metrics:          simMetrics,
		Tracer:           observability.Tracer(),
		Logger:           logging.GetSimLogger(),
	})

	// === REST API ===
	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(api.Config{
		Port:     cfg.Server.GetRESTPort(),
		Sim:      runner,
		Issuer:   auth.NewIssuer(cfg.Auth.Secret(), time.Duration(cfg.Auth.TokenTTL)*time.Hour),
		Registry: registry,
		Logger:   logging.GetAPILogger(),
	})
	if cfg.Auth.Secret() == "" {
		logging.Warn("⚠️  auth.jwt_secret не задан: админ-токены действуют до перезапуска")
	}
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop(context.Background())

	metricsServer := startMetricsServer(cfg.Server.GetMetricsPort(), registry)
	defer metricsServer.Shutdown(context.Background())

	logging.Info("✅ Все сервисы запущены")
	return runner.Run(ctx, maxTicks)
}

// startMetricsServer отдаёт /metrics на отдельном порту для Prometheus
func startMetricsServer(port int, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("❌ Ошибка сервера метрик: %v", err)
		}
	}()
	logging.Info("📈 Prometheus метрики: http://localhost:%d/metrics", port)
	return srv
}

func openEventBus(bc config.EventBusConfig) (eventbus.EventBus, error) {
	if bc.URL == "" {
		logging.Info("📨 Шина событий: in-memory")
		return eventbus.NewMemoryBus(bc.Buffer), nil
	}

	bus, err := eventbus.NewJetStreamBus(bc.URL, bc.Stream, time.Duration(bc.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("JetStream %s: %w", bc.URL, err)
	}
	logging.Info("📨 Шина событий: JetStream %s, поток %s", bc.URL, bc.Stream)
	return bus, nil
}

func loadTileMap(cfg *config.Config) (*world.TileMap, error) {
	if cfg.Level.MapPath != "" {
		m, err := world.LoadTileMap(cfg.Level.MapPath)
		if err != nil {
			return nil, err
		}
		logging.Info("🗺️ Карта загружена из %s", cfg.Level.MapPath)
		return m, nil
	}

	m, err := world.GenerateTileMap(cfg.GeneratorParams())
	if err != nil {
		return nil, fmt.Errorf("генерация арены: %w", err)
	}
	logging.Info("🌱 Арена %dx%d сгенерирована (seed=%d)", m.Width, m.Height, cfg.Level.Seed)
	return m, nil
}
