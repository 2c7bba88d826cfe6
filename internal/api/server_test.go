package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annel0/fps-core/internal/assets"
	"github.com/annel0/fps-core/internal/auth"
	"github.com/annel0/fps-core/internal/eventbus"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/sim"
	"github.com/annel0/fps-core/internal/storage"
	"github.com/annel0/fps-core/internal/world"
	"github.com/annel0/fps-core/internal/world/entity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enemyID = 8

// syncSim выполняет команды сразу в вызывающей горутине
type syncSim struct {
	scene *world.Scene
	repo  storage.SnapshotRepo
}

func (s *syncSim) Latest() *world.Snapshot { return s.scene.Snapshot() }

func (s *syncSim) Do(ctx context.Context, cmd sim.Command) error { return cmd(s.scene) }

func (s *syncSim) Save(ctx context.Context, key string) error {
	if key == "" {
		key = "autosave"
	}
	return s.repo.Save(ctx, key, s.scene.Snapshot())
}

func (s *syncSim) Load(ctx context.Context, key string) error {
	if key == "" {
		key = "autosave"
	}
	snap, err := s.repo.Load(ctx, key)
	if err != nil {
		return err
	}
	return s.scene.Restore(snap)
}

// arenaMap 5x3: старт (1,1), враг (3,1)
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

type testServer struct {
	*Server
	sim    *syncSim
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	scene, err := world.LoadScene(arenaMap(), world.LoadOptions{
		Options: world.Options{Clock: world.FixedClock(1.0)},
		Loader:  assets.NewMemoryCatalog("./assets/textures/wall1.png", "./assets/models/enemy.m3d"),
		Actor:   entity.DefaultActorConfig(),
		Player:  world.DefaultPlayerTemplate(),
	})
	require.NoError(t, err)

	logger, err := logging.NewLoggerWithOptions("api", logging.Options{
		Console:         io.Discard,
		DisableFileSink: true,
	})
	require.NoError(t, err)

	bus := eventbus.NewMemoryBus(16)
	t.Cleanup(func() { bus.Close() })

	s := &syncSim{scene: scene, repo: storage.NewMemorySnapshotRepo()}
	issuer := auth.NewIssuer("test-secret", time.Hour)
	server := NewServer(Config{Sim: s, Bus: bus, Issuer: issuer, Logger: logger})
	return testServer{Server: server, sim: s, issuer: issuer}
}

func (ts testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts testServer) adminToken(t *testing.T) string {
	token, err := ts.issuer.Generate("ops", true)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) GenericResponse {
	t.Helper()
	var resp GenericResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestPublicRoutes(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"Сцена", "/api/scene", http.StatusOK, `"scene":"arena"`},
		{"Сущность", "/api/entities/8", http.StatusOK, `"kind":"actor"`},
		{"Нет сущности", "/api/entities/999", http.StatusNotFound, ""},
		{"Неверный id", "/api/entities/abc", http.StatusBadRequest, ""},
		{"Статистика", "/api/stats", http.StatusOK, `"actors_alive":1`},
		{"Процесс", "/api/server", http.StatusOK, `"memory_mb"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
		})
	}
}

func TestAdminRequiresAdminToken(t *testing.T) {
	ts := newTestServer(t)
	body := DamageRequest{Amount: 5}

	rec := ts.do(t, http.MethodPost, "/api/admin/entities/8/damage", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/entities/8/damage", "garbage", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	viewer, err := ts.issuer.Generate("viewer", false)
	require.NoError(t, err)
	rec = ts.do(t, http.MethodPost, "/api/admin/entities/8/damage", viewer, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/save", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminDamage(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	rec := ts.do(t, http.MethodPost, "/api/admin/entities/8/damage", token, DamageRequest{Amount: 100})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applied":true`)
	assert.Equal(t, 0, ts.sim.scene.AliveActors())

	rec = ts.do(t, http.MethodPost, "/api/admin/entities/8/damage", token, DamageRequest{Amount: 100})
	assert.Contains(t, rec.Body.String(), `"applied":false`, "Труп урон не получает")

	rec = ts.do(t, http.MethodPost, "/api/admin/entities/999/damage", token, DamageRequest{Amount: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/entities/8/damage", token, map[string]int{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminFire(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	rec := ts.do(t, http.MethodPost, "/api/admin/player/fire", token, map[string][]float32{"direction": {1, 0, 0}})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["hit"])
	assert.Equal(t, float64(enemyID), data["entity_id"])
	assert.InDelta(t, 1.875, data["distance"], 1e-5)

	rec = ts.do(t, http.MethodPost, "/api/admin/player/fire", token, map[string][]float32{"direction": {1, 0, 0}})
	assert.Equal(t, http.StatusConflict, rec.Code, "Перезарядка")

	rec = ts.do(t, http.MethodPost, "/api/admin/player/fire", token, map[string][]float32{"direction": {0, 0, 0}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/player/fire", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSaveLoad(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	rec := ts.do(t, http.MethodPost, "/api/admin/save", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/entities/8/damage", token, DamageRequest{Amount: 100})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/load", token, SlotRequest{Key: "autosave"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ts.sim.scene.AliveActors(), "Враг снова жив")

	rec = ts.do(t, http.MethodPost, "/api/admin/load", token, SlotRequest{Key: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/save", token, SlotRequest{Key: "bad key"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/load", token, SlotRequest{Key: "bad key"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/health", "", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rest_api_http_request_duration_seconds"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(sim.ErrQueueFull))
	assert.Equal(t, http.StatusConflict, statusFor(world.ErrSnapshotMismatch))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestServer_StatsFromGlobalBus(t *testing.T) {
	ts := newTestServer(t)

	bus := eventbus.NewMemoryBus(16)
	t.Cleanup(func() { bus.Close() })
	eventbus.Init(bus)
	t.Cleanup(func() { eventbus.Init(nil) })

	server := NewServer(Config{Sim: ts.sim, Issuer: ts.issuer, Logger: ts.logger})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events":{"published":0`)
}
