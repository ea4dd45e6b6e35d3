package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/internal/registry"
	"github.com/afenda/kernel/pkg/model"
)

// ActorHeader 携带操作者身份的请求头，用于审计记录
const ActorHeader = "X-Actor-Id"

// RegisterServiceRequest 服务注册请求
type RegisterServiceRequest struct {
	ID         string            `json:"id" validate:"required,max=128"`
	Name       string            `json:"name" validate:"required"`
	Endpoint   string            `json:"endpoint" validate:"required,url"`
	HealthPath string            `json:"health_path"`
	TimeoutMs  int               `json:"timeout_ms" validate:"omitempty,min=1,max=60000"`
	Metadata   map[string]string `json:"metadata"`
}

// UpdateServiceRequest 服务元数据更新请求
type UpdateServiceRequest struct {
	Metadata map[string]string `json:"metadata" validate:"required"`
}

// ServiceHandler 处理服务注册表相关API
type ServiceHandler struct {
	registry *registry.Service
	logger   config.Logger
}

// NewServiceHandler 创建服务处理器
func NewServiceHandler(registry *registry.Service, logger config.Logger) *ServiceHandler {
	return &ServiceHandler{
		registry: registry,
		logger:   logger,
	}
}

// RegisterService 注册服务
func (h *ServiceHandler) RegisterService(c echo.Context) error {
	var req RegisterServiceRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, CodeValidation, "请求参数无效: "+err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, CodeValidation, "参数验证失败: "+err.Error())
	}

	if req.HealthPath == "" {
		req.HealthPath = "/health"
	}

	descriptor := &model.ServiceDescriptor{
		ID:         req.ID,
		Name:       req.Name,
		Endpoint:   req.Endpoint,
		HealthPath: req.HealthPath,
		TimeoutMs:  req.TimeoutMs,
		Metadata:   req.Metadata,
	}

	created, err := h.registry.Register(c.Request().Context(), descriptor, c.Request().Header.Get(ActorHeader))
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusCreated, created)
}

// GetService 获取服务详情
func (h *ServiceHandler) GetService(c echo.Context) error {
	serviceID := c.Param("serviceId")
	if serviceID == "" {
		return respondError(c, http.StatusBadRequest, CodeValidation, "服务ID不能为空")
	}

	service, err := h.registry.Get(c.Request().Context(), serviceID)
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusOK, service)
}

// UpdateServiceMetadata 合并更新服务元数据
func (h *ServiceHandler) UpdateServiceMetadata(c echo.Context) error {
	serviceID := c.Param("serviceId")
	if serviceID == "" {
		return respondError(c, http.StatusBadRequest, CodeValidation, "服务ID不能为空")
	}

	var req UpdateServiceRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, CodeValidation, "请求参数无效: "+err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, CodeValidation, "参数验证失败: "+err.Error())
	}

	updated, err := h.registry.UpdateMetadata(c.Request().Context(), serviceID, req.Metadata, c.Request().Header.Get(ActorHeader))
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusOK, updated)
}

// UnregisterService 注销服务
func (h *ServiceHandler) UnregisterService(c echo.Context) error {
	serviceID := c.Param("serviceId")
	if serviceID == "" {
		return respondError(c, http.StatusBadRequest, CodeValidation, "服务ID不能为空")
	}

	err := h.registry.Unregister(c.Request().Context(), serviceID, c.Request().Header.Get(ActorHeader))
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusOK, map[string]bool{"success": true})
}

// ListServices 返回全部服务
func (h *ServiceHandler) ListServices(c echo.Context) error {
	services, err := h.registry.List(c.Request().Context())
	if err != nil {
		return respondStorageError(c, h.logger, err)
	}

	return respondOK(c, http.StatusOK, map[string]any{
		"services": services,
		"total":    len(services),
	})
}
