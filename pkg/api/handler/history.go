package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/internal/health"
)

// 历史查询参数边界
const (
	maxWindowHours  = 24 * 30
	maxHistoryLimit = 1000
)

// HistoryHandler 处理探测历史与可用率API
type HistoryHandler struct {
	history            *health.HistoryService
	uptime             *health.UptimeCalculator
	logger             config.Logger
	defaultWindowHours int
	defaultLimit       int
}

// NewHistoryHandler 创建历史查询处理器
func NewHistoryHandler(history *health.HistoryService, uptime *health.UptimeCalculator, logger config.Logger, defaultWindowHours, defaultLimit int) *HistoryHandler {
	if defaultWindowHours <= 0 {
		defaultWindowHours = health.DefaultUptimeWindowHours
	}
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	return &HistoryHandler{
		history:            history,
		uptime:             uptime,
		logger:             logger,
		defaultWindowHours: defaultWindowHours,
		defaultLimit:       defaultLimit,
	}
}

// GetHealthHistory 查询窗口内的探测历史，从新到旧
func (h *HistoryHandler) GetHealthHistory(c echo.Context) error {
	hours, err := parseBoundedInt(c.QueryParam("hours"), h.defaultWindowHours, 1, maxWindowHours)
	if err != nil {
		return respondError(c, http.StatusBadRequest, CodeValidation, "hours参数无效: "+err.Error())
	}
	limit, err := parseBoundedInt(c.QueryParam("limit"), h.defaultLimit, 1, maxHistoryLimit)
	if err != nil {
		return respondError(c, http.StatusBadRequest, CodeValidation, "limit参数无效: "+err.Error())
	}

	entries, err := h.history.Query(c.Request().Context(), c.QueryParam("service_id"), hours, limit)
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   len(entries),
	})
}

// CalculateUptime 计算单个服务在窗口内的可用率
func (h *HistoryHandler) CalculateUptime(c echo.Context) error {
	serviceID := c.Param("serviceId")
	if serviceID == "" {
		return respondError(c, http.StatusBadRequest, CodeValidation, "服务ID不能为空")
	}

	hours, err := parseBoundedInt(c.QueryParam("hours"), h.defaultWindowHours, 1, maxWindowHours)
	if err != nil {
		return respondError(c, http.StatusBadRequest, CodeValidation, "hours参数无效: "+err.Error())
	}

	stat, err := h.uptime.Calculate(c.Request().Context(), serviceID, hours)
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusOK, stat)
}

// parseBoundedInt 解析带边界的整数查询参数，为空时使用默认值
func parseBoundedInt(raw string, defaultValue, min, max int) (int, error) {
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if value < min || value > max {
		return 0, strconv.ErrRange
	}
	return value, nil
}
