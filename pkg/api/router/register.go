package router

import (
	"github.com/labstack/echo/v4"

	"github.com/afenda/kernel/pkg/api/handler"
)

// RegisterRoutes 配置内核健康API路由
// adminGuard应用于注册表写操作，未配置管理令牌时为直通中间件
func RegisterRoutes(e *echo.Echo, serviceHandler *handler.ServiceHandler, healthHandler *handler.HealthHandler, historyHandler *handler.HistoryHandler, adminGuard echo.MiddlewareFunc) {
	// API分组，版本v1
	api := e.Group("/api/v1")

	// 内核自身健康检查
	api.GET("/health", healthHandler.KernelHealth)

	// 服务注册表相关路由：注册、列表、详情、元数据更新、注销、按需探测、可用率
	services := api.Group("/services")
	services.POST("", serviceHandler.RegisterService, adminGuard)
	services.GET("", serviceHandler.ListServices)
	services.GET("/:serviceId", serviceHandler.GetService)
	services.PATCH("/:serviceId", serviceHandler.UpdateServiceMetadata, adminGuard)
	services.DELETE("/:serviceId", serviceHandler.UnregisterService, adminGuard)
	services.GET("/:serviceId/health", healthHandler.CheckServiceHealth)
	services.GET("/:serviceId/uptime", historyHandler.CalculateUptime)

	// 系统级健康路由：全量探测快照与探测历史查询
	system := api.Group("/system")
	system.GET("/health", healthHandler.CheckAllServiceHealth)
	system.GET("/history", historyHandler.GetHealthHistory)
}
