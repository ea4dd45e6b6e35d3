package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/internal/health"
	"github.com/afenda/kernel/pkg/storage"
)

// HealthHandler 处理健康探测相关API
type HealthHandler struct {
	aggregator *health.Aggregator
	services   storage.ServiceStore
	logger     config.Logger
}

// NewHealthHandler 创建健康探测处理器
func NewHealthHandler(aggregator *health.Aggregator, services storage.ServiceStore, logger config.Logger) *HealthHandler {
	return &HealthHandler{
		aggregator: aggregator,
		services:   services,
		logger:     logger,
	}
}

// CheckServiceHealth 按需探测单个服务
// 被探测服务不健康不是API错误：响应始终是200，状态体现在数据中
func (h *HealthHandler) CheckServiceHealth(c echo.Context) error {
	serviceID := c.Param("serviceId")
	if serviceID == "" {
		return respondError(c, http.StatusBadRequest, CodeValidation, "服务ID不能为空")
	}

	result, err := h.aggregator.CheckOne(c.Request().Context(), serviceID)
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusOK, result)
}

// CheckAllServiceHealth 探测全部注册服务并返回系统健康快照
func (h *HealthHandler) CheckAllServiceHealth(c echo.Context) error {
	snapshot, err := h.aggregator.CheckAll(c.Request().Context())
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusOK, snapshot)
}

// KernelHealth 内核服务自身的健康检查
func (h *HealthHandler) KernelHealth(c echo.Context) error {
	// 限时检查存储层可用性，保证健康检查自身及时响应
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details := map[string]any{
		"uptime_seconds": health.UptimeSeconds(),
		"resources":      getResourceUsage(),
		"goroutines":     runtime.NumGoroutine(),
	}

	if _, err := h.services.ListServices(ctx); err != nil {
		details["component"] = "storage"
		details["error"] = err.Error()
		return c.JSON(http.StatusServiceUnavailable, Response{
			OK:      false,
			Data:    details,
			Error:   &ErrorInfo{Code: CodeInternal, Message: "存储层不可用"},
			TraceID: traceID(c),
		})
	}

	details["status"] = "healthy"
	return respondOK(c, http.StatusOK, details)
}

// getResourceUsage 获取资源使用情况
func getResourceUsage() map[string]any {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]any{
		"memory_alloc": formatBytes(memStats.Alloc),
		"memory_sys":   formatBytes(memStats.Sys),
		"memory_heap":  formatBytes(memStats.HeapAlloc),
		"num_gc":       memStats.NumGC,
	}
}

// formatBytes 将字节数格式化为可读形式
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
