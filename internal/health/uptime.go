package health

import (
	"context"
	"math"
	"time"

	"github.com/afenda/kernel/pkg/model"
	"github.com/afenda/kernel/pkg/storage"
)

// DefaultUptimeWindowHours 可用率统计的默认窗口
const DefaultUptimeWindowHours = 24

// UptimeCalculator 计算单个服务在时间窗口内的可用率
type UptimeCalculator struct {
	services storage.ServiceStore
	history  storage.HistoryStore
}

// NewUptimeCalculator 创建可用率计算器
func NewUptimeCalculator(services storage.ServiceStore, history storage.HistoryStore) *UptimeCalculator {
	return &UptimeCalculator{
		services: services,
		history:  history,
	}
}

// Calculate 统计窗口内健康探测的占比
// 窗口内无样本时返回100%：没有数据视为没有故障证据，而不是错误
func (u *UptimeCalculator) Calculate(ctx context.Context, serviceID string, windowHours int) (*model.UptimeStatistic, error) {
	if windowHours <= 0 {
		windowHours = DefaultUptimeWindowHours
	}

	// 服务必须在注册表中，已注销的服务返回NotFound
	if _, err := u.services.GetService(ctx, serviceID); err != nil {
		return nil, err
	}

	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)
	entries, err := u.history.QueryEntries(ctx, storage.HistoryQuery{
		ServiceID: serviceID,
		Since:     since,
	})
	if err != nil {
		return nil, err
	}

	stat := &model.UptimeStatistic{
		ServiceID:   serviceID,
		WindowHours: windowHours,
		SampleCount: len(entries),
		Percentage:  100,
	}

	if len(entries) == 0 {
		return stat, nil
	}

	healthy := 0
	for _, entry := range entries {
		if entry.Status == model.HealthStatusHealthy {
			healthy++
		}
	}

	stat.Percentage = int(math.Round(float64(healthy) / float64(len(entries)) * 100))
	return stat, nil
}
