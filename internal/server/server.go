package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	iconfig "github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/internal/health"
	"github.com/afenda/kernel/internal/registry"
	"github.com/afenda/kernel/pkg/api/handler"
	"github.com/afenda/kernel/pkg/api/router"
	"github.com/afenda/kernel/pkg/config"
	"github.com/afenda/kernel/pkg/storage"
)

// CustomValidator 包装validator实现echo.Validator接口
type CustomValidator struct {
	validator *validator.Validate
}

// Validate 实现echo.Validator接口
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Server 表示内核健康API服务
type Server struct {
	e      *echo.Echo
	host   string
	port   int
	logger iconfig.Logger
}

// NewServer 组装内核健康API服务
// 存储以接口注入，测试和开发环境可以用内存实现替换etcd
func NewServer(cfg *config.Config, logger iconfig.Logger, services storage.ServiceStore, historyStore storage.HistoryStore) (*Server, error) {
	// 创建Echo实例
	e := echo.New()
	e.HideBanner = true

	// 添加中间件
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// 请求参数验证器
	e.Validator = &CustomValidator{validator: validator.New()}

	// 组装探测器
	proberOpts := []health.ProberOption{}
	if cfg.Probe.DefaultTimeoutMs > 0 {
		proberOpts = append(proberOpts, health.WithDefaultTimeout(time.Duration(cfg.Probe.DefaultTimeoutMs)*time.Millisecond))
	}
	if cfg.Probe.DegradedThreshold != "" {
		threshold, err := time.ParseDuration(cfg.Probe.DegradedThreshold)
		if err != nil {
			return nil, fmt.Errorf("解析降级阈值失败: %w", err)
		}
		proberOpts = append(proberOpts, health.WithDegradedThreshold(threshold))
	}
	prober := health.NewProber(proberOpts...)

	// 组装业务组件
	aggregator := health.NewAggregator(services, historyStore, prober, logger, cfg.Probe.Concurrency)
	uptime := health.NewUptimeCalculator(services, historyStore)
	historyService := health.NewHistoryService(services, historyStore)
	registryService := registry.NewService(services, registry.NewLogAuditRecorder(logger))

	// 组装处理器并注册路由
	serviceHandler := handler.NewServiceHandler(registryService, logger)
	healthHandler := handler.NewHealthHandler(aggregator, services, logger)
	historyHandler := handler.NewHistoryHandler(historyService, uptime, logger,
		cfg.History.DefaultWindowHours, cfg.History.DefaultLimit)

	router.RegisterRoutes(e, serviceHandler, healthHandler, historyHandler, adminGuard(cfg.Server.AdminToken))

	return &Server{
		e:      e,
		host:   cfg.Server.Host,
		port:   cfg.Server.Port,
		logger: logger,
	}, nil
}

// Start 以非阻塞方式启动服务
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("内核健康API服务启动", zap.String("addr", addr))

	go func() {
		if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("内核健康API服务启动失败", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown 优雅关闭服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// Echo 暴露底层echo实例，供测试直接发起请求
func (s *Server) Echo() *echo.Echo {
	return s.e
}

// adminGuard 写操作鉴权中间件
// 未配置管理令牌时直通；配置后要求 Authorization: Bearer <token>
func adminGuard(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if token == "" {
			return next
		}
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			provided, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || provided != token {
				return c.JSON(http.StatusUnauthorized, handler.Response{
					OK: false,
					Error: &handler.ErrorInfo{
						Code:    handler.CodeUnauthorized,
						Message: "缺少或无效的管理令牌",
					},
					TraceID: c.Response().Header().Get(echo.HeaderXRequestID),
				})
			}
			return next(c)
		}
	}
}
