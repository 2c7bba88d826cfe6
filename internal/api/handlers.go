package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/fps-core/internal/sim"
	"github.com/annel0/fps-core/internal/storage"
	"github.com/annel0/fps-core/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// DamageRequest тело POST /api/admin/entities/:id/damage
type DamageRequest struct {
	Amount int `json:"amount" binding:"required,min=1"`
}

// SlotRequest тело save/load; пустой ключ - слот автосохранения
type SlotRequest struct {
	Key string `json:"key"`
}

// FireRequest тело POST /api/admin/player/fire
type FireRequest struct {
	Direction *[3]float32 `json:"direction" binding:"required"`
}

// statusFor переводит ошибку домена в HTTP-статус
func statusFor(err error) int {
	switch {
	case errors.Is(err, world.ErrEntityNotFound), errors.Is(err, storage.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, world.ErrWeaponCooldown), errors.Is(err, world.ErrPlayerDead),
		errors.Is(err, world.ErrSnapshotMismatch):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, sim.ErrQueueFull), errors.Is(err, sim.ErrStopped), errors.Is(err, sim.ErrNoRepo):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: err.Error()})
}

func (s *Server) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: message})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"tick":   s.sim.Latest().Tick,
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleServerInfo(c *gin.Context) {
	info := map[string]interface{}{
		"name":      "FPS Simulation Core",
		"status":    "running",
		"uptime":    s.metrics.GetUptime(),
		"memory_mb": s.metrics.GetMemoryUsage(),
	}
	if cpu, err := s.metrics.GetCPUUsage(); err == nil {
		info["cpu_percent"] = cpu
	}
	if rss, err := s.metrics.GetRSS(); err == nil {
		info["rss_mb"] = rss
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Информация о сервере", Data: info})
}

func (s *Server) handleScene(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Снимок сцены", Data: s.sim.Latest()})
}

func parseID(c *gin.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint32(id), true
}

func (s *Server) handleEntity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "Неверный id сущности")
		return
	}

	st, found := s.sim.Latest().Entity(id)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Сущность не найдена"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Сущность", Data: st})
}

func (s *Server) handleStats(c *gin.Context) {
	snap := s.sim.Latest()

	alive := 0
	for _, st := range snap.Entities {
		if st.Kind == "actor" && !st.Dead {
			alive++
		}
	}

	stats := map[string]interface{}{
		"tick":         snap.Tick,
		"entities":     len(snap.Entities),
		"actors_alive": alive,
		"projectiles":  len(snap.Projectiles),
		"player":       snap.Player,
	}
	if s.bus != nil {
		stats["events"] = s.bus.Metrics()
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Статистика получена", Data: stats})
}

func (s *Server) handleDamage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		s.badRequest(c, "Неверный id сущности")
		return
	}
	var req DamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Неверный формат запроса")
		return
	}

	var applied bool
	err := s.sim.Do(c.Request.Context(), func(scene *world.Scene) error {
		var err error
		applied, err = scene.DamageEntity(id, req.Amount)
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.logger.Info("🔫 Оператор %s: урон %d сущности %d", c.GetString("operator"), req.Amount, id)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Урон нанесён",
		Data:    gin.H{"applied": applied},
	})
}

// bindSlot тело необязательно
func bindSlot(c *gin.Context) (SlotRequest, bool) {
	var req SlotRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, false
	}
	return req, true
}

func (s *Server) handleSave(c *gin.Context) {
	req, ok := bindSlot(c)
	if !ok {
		s.badRequest(c, "Неверный формат запроса")
		return
	}
	if err := s.sim.Save(c.Request.Context(), req.Key); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Снимок сохранён"})
}

func (s *Server) handleLoad(c *gin.Context) {
	req, ok := bindSlot(c)
	if !ok {
		s.badRequest(c, "Неверный формат запроса")
		return
	}
	if err := s.sim.Load(c.Request.Context(), req.Key); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Снимок загружен"})
}

func (s *Server) handleFire(c *gin.Context) {
	var req FireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Неверный формат запроса")
		return
	}
	direction := mgl32.Vec3(*req.Direction)
	if direction.Len() == 0 {
		s.badRequest(c, "Нулевое направление выстрела")
		return
	}

	var result world.ShotResult
	err := s.sim.Do(c.Request.Context(), func(scene *world.Scene) error {
		var err error
		result, err = scene.FirePlayerWeapon(direction)
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Выстрел", Data: result})
}
