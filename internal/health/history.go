package health

import (
	"context"
	"time"

	"github.com/afenda/kernel/pkg/model"
	"github.com/afenda/kernel/pkg/storage"
)

// HistoryService 提供探测历史的窗口查询
type HistoryService struct {
	services storage.ServiceStore
	history  storage.HistoryStore
}

// NewHistoryService 创建历史查询服务
func NewHistoryService(services storage.ServiceStore, history storage.HistoryStore) *HistoryService {
	return &HistoryService{
		services: services,
		history:  history,
	}
}

// Query 查询尾随窗口内的历史记录，从新到旧
// 指定了serviceID时要求服务仍在注册表中，否则返回NotFound；
// 服务存在但窗口内没有记录时返回空列表，不视为错误
func (h *HistoryService) Query(ctx context.Context, serviceID string, windowHours, limit int) ([]*model.HealthHistoryEntry, error) {
	if serviceID != "" {
		if _, err := h.services.GetService(ctx, serviceID); err != nil {
			return nil, err
		}
	}

	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)
	return h.history.QueryEntries(ctx, storage.HistoryQuery{
		ServiceID: serviceID,
		Since:     since,
		Limit:     limit,
	})
}
