package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/pkg/model"
)

// AuditRecorder 接收注册表变更的审计记录
// 审计存储由外部系统负责，这里只定义采集入口
type AuditRecorder interface {
	Record(ctx context.Context, record model.AuditRecord)
}

// LogAuditRecorder 将审计记录输出到结构化日志
type LogAuditRecorder struct {
	logger config.Logger
}

// NewLogAuditRecorder 创建日志审计记录器
func NewLogAuditRecorder(logger config.Logger) *LogAuditRecorder {
	return &LogAuditRecorder{logger: logger}
}

// Record 记录一条审计日志
func (r *LogAuditRecorder) Record(ctx context.Context, record model.AuditRecord) {
	fields := []zap.Field{
		zap.String("action", record.Action),
		zap.String("actor", record.Actor),
		zap.String("service_id", record.ServiceID),
		zap.Time("at", record.At),
	}
	if record.Before != nil {
		fields = append(fields, zap.Any("before", record.Before))
	}
	if record.After != nil {
		fields = append(fields, zap.Any("after", record.After))
	}
	r.logger.Info("注册表变更审计", fields...)
}
