package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afenda/kernel/pkg/model"
)

func (app *testApp) registerDownstream(t *testing.T, id string, server *httptest.Server, timeoutMs int) {
	t.Helper()
	body := fmt.Sprintf(`{"id":%q,"name":%q,"endpoint":%q,"health_path":"/health","timeout_ms":%d}`,
		id, id, server.URL, timeoutMs)
	code, _ := app.do(t, http.MethodPost, "/api/v1/services", body)
	require.Equal(t, http.StatusCreated, code)
}

func TestHealthHandler_CheckAllEmpty(t *testing.T) {
	app := newTestApp(t)

	// 空注册表：整体healthy，统计全零
	code, resp := app.do(t, http.MethodGet, "/api/v1/system/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.OK)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", data["status"])

	summary, ok := data["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), summary["total"])
	assert.Equal(t, float64(0), summary["healthy"])
	assert.Equal(t, float64(0), summary["degraded"])
	assert.Equal(t, float64(0), summary["down"])
}

func TestHealthHandler_CheckAll(t *testing.T) {
	app := newTestApp(t)

	healthyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthyServer.Close()
	downServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer downServer.Close()

	app.registerDownstream(t, "svc-ok", healthyServer, 1000)
	app.registerDownstream(t, "svc-down", downServer, 1000)

	// 被探测服务不健康不是API错误：响应仍是200，状态体现在数据中
	code, resp := app.do(t, http.MethodGet, "/api/v1/system/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.OK)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "down", data["status"])

	summary, ok := data["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), summary["total"])
	assert.Equal(t, float64(1), summary["healthy"])
	assert.Equal(t, float64(1), summary["down"])
}

func TestHealthHandler_CheckOne(t *testing.T) {
	app := newTestApp(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	app.registerDownstream(t, "svc-a", server, 1000)

	code, resp := app.do(t, http.MethodGet, "/api/v1/services/svc-a/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.OK)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "svc-a", data["service_id"])

	// 不存在的服务返回NotFound
	code, resp = app.do(t, http.MethodGet, "/api/v1/services/svc-missing/health", "")
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestHealthHandler_KernelHealth(t *testing.T) {
	app := newTestApp(t)

	code, resp := app.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.OK)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", data["status"])
	assert.Contains(t, data, "uptime_seconds")
	assert.Contains(t, data, "resources")
}

func TestHistoryHandler_GetHistory(t *testing.T) {
	app := newTestApp(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	app.registerDownstream(t, "svc-a", server, 1000)

	// 先触发一次探测产生历史
	code, _ := app.do(t, http.MethodGet, "/api/v1/services/svc-a/health", "")
	require.Equal(t, http.StatusOK, code)

	code, resp := app.do(t, http.MethodGet, "/api/v1/system/history?service_id=svc-a", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.OK)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total"])

	// 参数越界返回Validation错误
	code, resp = app.do(t, http.MethodGet, "/api/v1/system/history?hours=-1", "")
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeValidation, resp.Error.Code)

	code, resp = app.do(t, http.MethodGet, "/api/v1/system/history?limit=99999", "")
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeValidation, resp.Error.Code)

	// 指定了不存在的服务ID时返回NotFound
	code, resp = app.do(t, http.MethodGet, "/api/v1/system/history?service_id=svc-missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestHistoryHandler_Uptime(t *testing.T) {
	app := newTestApp(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	app.registerDownstream(t, "svc-a", server, 1000)

	// 无样本时可用率为100%
	code, resp := app.do(t, http.MethodGet, "/api/v1/services/svc-a/uptime", "")
	assert.Equal(t, http.StatusOK, code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(100), data["percentage"])
	assert.Equal(t, float64(0), data["sample_count"])
	assert.Equal(t, float64(24), data["window_hours"])

	// 直接写入历史后统计
	now := time.Now()
	for _, status := range []model.HealthStatus{
		model.HealthStatusHealthy,
		model.HealthStatusHealthy,
		model.HealthStatusDown,
		model.HealthStatusHealthy,
	} {
		require.NoError(t, app.history.AppendEntry(context.Background(), &model.HealthHistoryEntry{
			ID:        string(status) + now.String(),
			ServiceID: "svc-a",
			Status:    status,
			CreatedAt: now,
		}))
	}

	code, resp = app.do(t, http.MethodGet, "/api/v1/services/svc-a/uptime?hours=24", "")
	assert.Equal(t, http.StatusOK, code)
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(75), data["percentage"])
	assert.Equal(t, float64(4), data["sample_count"])

	// 不存在的服务返回NotFound
	code, resp = app.do(t, http.MethodGet, "/api/v1/services/svc-missing/uptime", "")
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}
