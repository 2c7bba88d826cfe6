package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/fps-core/internal/auth"
	"github.com/annel0/fps-core/internal/eventbus"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/middleware"
	"github.com/annel0/fps-core/internal/sim"
	"github.com/annel0/fps-core/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Simulation то, что REST API требует от симуляции (sim.Runner)
type Simulation interface {
	Latest() *world.Snapshot
	Do(ctx context.Context, cmd sim.Command) error
	Save(ctx context.Context, key string) error
	Load(ctx context.Context, key string) error
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     int
	Sim      Simulation
	Bus      eventbus.EventBus    // nil - берётся eventbus.Global()
	Issuer   *auth.Issuer         // Проверка токенов админ-группы
	Registry *prometheus.Registry // Метрики HTTP и эндпоинт /metrics
	Logger   *logging.Logger
}

// Server отладочный REST API симуляции
type Server struct {
	router     *gin.Engine
	sim        Simulation
	bus        eventbus.EventBus
	issuer     *auth.Issuer
	metrics    *ServerMetrics
	logger     *logging.Logger
	addr       string
	httpServer *http.Server
}

// NewServer создаёт сервер и настраивает маршруты
func NewServer(cfg Config) *Server {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Issuer == nil {
		cfg.Issuer = auth.NewIssuer("", 0)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetAPILogger()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	router.Use(otelgin.Middleware("fps-core-api"))
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", cfg.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, cfg.Registry)

	bus := cfg.Bus
	if bus == nil {
		bus = eventbus.Global()
	}

	s := &Server{
		router:  router,
		sim:     cfg.Sim,
		bus:     bus,
		issuer:  cfg.Issuer,
		metrics: NewServerMetrics(),
		logger:  cfg.Logger,
		addr:    fmt.Sprintf(":%d", cfg.Port),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/server", s.handleServerInfo)
	api.GET("/scene", s.handleScene)
	api.GET("/entities/:id", s.handleEntity)
	api.GET("/stats", s.handleStats)

	admin := api.Group("/admin")
	admin.Use(s.jwtMiddleware(), s.adminMiddleware())
	{
		admin.POST("/entities/:id/damage", s.handleDamage)
		admin.POST("/save", s.handleSave)
		admin.POST("/load", s.handleLoad)
		admin.POST("/player/fire", s.handleFire)
	}
}

// Handler возвращает http.Handler (для тестов и встраивания)
func (s *Server) Handler() http.Handler { return s.router }

// Start запускает HTTP сервер в отдельной горутине
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("❌ Ошибка REST API сервера: %v", err)
		}
	}()

	s.logger.Info("✅ REST API сервер запущен на http://localhost%s", s.addr)
	s.logger.Info("📋 Доступные эндпоинты:")
	s.logger.Info("   GET  /health                          - Проверка состояния")
	s.logger.Info("   GET  /api/scene, /api/entities/:id    - Состояние сцены")
	s.logger.Info("   GET  /api/server, /api/stats          - Процесс и шина событий")
	s.logger.Info("   POST /api/admin/...                   - Команды (JWT администратора)")
	s.logger.Info("   GET  /metrics                         - Prometheus")
	return nil
}

// Stop останавливает HTTP сервер
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("🛑 Остановка REST API сервера...")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("остановка HTTP сервера: %w", err)
	}
	return nil
}
