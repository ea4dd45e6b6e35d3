package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iconfig "github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/pkg/api/handler"
	"github.com/afenda/kernel/pkg/config"
	"github.com/afenda/kernel/pkg/storage/memory"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8090
	cfg.Probe.DefaultTimeoutMs = 5000
	cfg.Probe.Concurrency = 50
	cfg.History.DefaultWindowHours = 24
	cfg.History.DefaultLimit = 100
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := NewServer(cfg, &iconfig.NopLogger{}, memory.NewRegistryStore(), memory.NewHistoryStore())
	require.NoError(t, err)
	return srv
}

const registerBody = `{"id":"svc-a","name":"测试服务","endpoint":"http://127.0.0.1:18080"}`

func doRequest(srv *Server, method, path, body, token string) (*httptest.ResponseRecorder, handler.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	var resp handler.Response
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestServer_AdminGuardDisabled(t *testing.T) {
	// 未配置管理令牌时写操作直通
	srv := newTestServer(t, testConfig())

	rec, resp := doRequest(srv, http.MethodPost, "/api/v1/services", registerBody, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.OK)
}

func TestServer_AdminGuardEnforced(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AdminToken = "secret-token"
	srv := newTestServer(t, cfg)

	// 无令牌的写操作被拒绝
	rec, resp := doRequest(srv, http.MethodPost, "/api/v1/services", registerBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, handler.CodeUnauthorized, resp.Error.Code)

	// 错误令牌同样被拒绝
	rec, _ = doRequest(srv, http.MethodPost, "/api/v1/services", registerBody, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 正确令牌放行
	rec, resp = doRequest(srv, http.MethodPost, "/api/v1/services", registerBody, "secret-token")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.OK)

	// 读操作不需要令牌
	rec, resp = doRequest(srv, http.MethodGet, "/api/v1/services", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.OK)
}

func TestServer_InvalidDegradedThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.Probe.DegradedThreshold = "不是时长"

	_, err := NewServer(cfg, &iconfig.NopLogger{}, memory.NewRegistryStore(), memory.NewHistoryStore())
	require.Error(t, err)
}

func TestServer_TraceIDPresent(t *testing.T) {
	srv := newTestServer(t, testConfig())

	// 每个响应都携带trace_id
	_, resp := doRequest(srv, http.MethodGet, "/api/v1/services", "", "")
	assert.NotEmpty(t, resp.TraceID)
}
