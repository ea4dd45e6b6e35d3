package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/pkg/storage"
)

// 错误代码，对应API错误分类
const (
	CodeValidation   = "VALIDATION"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL"
)

// Response API统一响应信封
// 每个响应都携带trace_id用于日志关联
type Response struct {
	OK      bool       `json:"ok"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	TraceID string     `json:"trace_id"`
}

// ErrorInfo 信封中的错误描述
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// traceID 从RequestID中间件写入的响应头中取trace标识
func traceID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// respondOK 返回成功信封
func respondOK(c echo.Context, status int, data any) error {
	return c.JSON(status, Response{
		OK:      true,
		Data:    data,
		TraceID: traceID(c),
	})
}

// respondError 返回失败信封
func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		OK:      false,
		Error:   &ErrorInfo{Code: code, Message: message},
		TraceID: traceID(c),
	})
}

// respondStorageError 将存储层错误映射为HTTP状态和信封错误代码
// 内部错误只返回通用消息，详细信息连同trace_id记入服务端日志
func respondStorageError(c echo.Context, logger config.Logger, err error) error {
	switch storage.ErrorCode(err) {
	case storage.ErrNotFound:
		return respondError(c, http.StatusNotFound, CodeNotFound, err.Error())
	case storage.ErrAlreadyExists:
		return respondError(c, http.StatusConflict, CodeConflict, err.Error())
	case storage.ErrInvalidArgument:
		return respondError(c, http.StatusBadRequest, CodeValidation, err.Error())
	default:
		logger.Error("内部错误",
			zap.String("trace_id", traceID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return respondError(c, http.StatusInternalServerError, CodeInternal, "内部错误，请凭trace_id联系管理员")
	}
}
