package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afenda/kernel/pkg/model"
	"github.com/afenda/kernel/pkg/storage"
	"github.com/afenda/kernel/pkg/storage/memory"
)

func setupUptime(t *testing.T) (*UptimeCalculator, *memory.HistoryStore) {
	t.Helper()
	services := memory.NewRegistryStore()
	history := memory.NewHistoryStore()

	err := services.RegisterService(context.Background(), &model.ServiceDescriptor{
		ID:         "svc-a",
		Name:       "测试服务",
		Endpoint:   "http://127.0.0.1:8080",
		HealthPath: "/health",
	})
	require.NoError(t, err)

	return NewUptimeCalculator(services, history), history
}

func appendStatus(t *testing.T, history *memory.HistoryStore, serviceID string, status model.HealthStatus, createdAt time.Time) {
	t.Helper()
	err := history.AppendEntry(context.Background(), &model.HealthHistoryEntry{
		ID:        "e-" + string(status) + createdAt.String(),
		ServiceID: serviceID,
		Status:    status,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
}

func TestUptimeCalculator_ZeroSamples(t *testing.T) {
	calc, _ := setupUptime(t)

	// 无样本视为没有故障证据，返回100%
	stat, err := calc.Calculate(context.Background(), "svc-a", 24)
	require.NoError(t, err)
	assert.Equal(t, 100, stat.Percentage)
	assert.Equal(t, 0, stat.SampleCount)
	assert.Equal(t, 24, stat.WindowHours)
	assert.Equal(t, "svc-a", stat.ServiceID)
}

func TestUptimeCalculator_Percentage(t *testing.T) {
	calc, history := setupUptime(t)
	now := time.Now()

	appendStatus(t, history, "svc-a", model.HealthStatusHealthy, now.Add(-4*time.Hour))
	appendStatus(t, history, "svc-a", model.HealthStatusHealthy, now.Add(-3*time.Hour))
	appendStatus(t, history, "svc-a", model.HealthStatusDown, now.Add(-2*time.Hour))
	appendStatus(t, history, "svc-a", model.HealthStatusHealthy, now.Add(-time.Hour))

	stat, err := calc.Calculate(context.Background(), "svc-a", 24)
	require.NoError(t, err)
	assert.Equal(t, 75, stat.Percentage)
	assert.Equal(t, 4, stat.SampleCount)
}

func TestUptimeCalculator_WindowExcludesOldEntries(t *testing.T) {
	calc, history := setupUptime(t)
	now := time.Now()

	// 窗口外的down记录不参与统计
	appendStatus(t, history, "svc-a", model.HealthStatusDown, now.Add(-30*time.Hour))
	appendStatus(t, history, "svc-a", model.HealthStatusHealthy, now.Add(-time.Hour))

	stat, err := calc.Calculate(context.Background(), "svc-a", 24)
	require.NoError(t, err)
	assert.Equal(t, 100, stat.Percentage)
	assert.Equal(t, 1, stat.SampleCount)
}

func TestUptimeCalculator_DegradedNotHealthy(t *testing.T) {
	calc, history := setupUptime(t)
	now := time.Now()

	// degraded不计入健康样本
	appendStatus(t, history, "svc-a", model.HealthStatusHealthy, now.Add(-2*time.Hour))
	appendStatus(t, history, "svc-a", model.HealthStatusDegraded, now.Add(-time.Hour))

	stat, err := calc.Calculate(context.Background(), "svc-a", 24)
	require.NoError(t, err)
	assert.Equal(t, 50, stat.Percentage)
	assert.Equal(t, 2, stat.SampleCount)
}

func TestUptimeCalculator_DefaultWindow(t *testing.T) {
	calc, _ := setupUptime(t)

	// 窗口参数非法时回退到默认24小时
	stat, err := calc.Calculate(context.Background(), "svc-a", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultUptimeWindowHours, stat.WindowHours)
}

func TestUptimeCalculator_UnknownService(t *testing.T) {
	calc, _ := setupUptime(t)

	_, err := calc.Calculate(context.Background(), "svc-missing", 24)
	require.Error(t, err)
	assert.Equal(t, storage.ErrNotFound, storage.ErrorCode(err))
}

func TestHistoryService_Query(t *testing.T) {
	services := memory.NewRegistryStore()
	history := memory.NewHistoryStore()
	svc := NewHistoryService(services, history)
	ctx := context.Background()

	err := services.RegisterService(ctx, &model.ServiceDescriptor{
		ID:       "svc-a",
		Name:     "测试服务",
		Endpoint: "http://127.0.0.1:8080",
	})
	require.NoError(t, err)

	// 服务存在但窗口内没有记录：空列表而不是错误
	entries, err := svc.Query(ctx, "svc-a", 24, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// 指定了不存在的服务ID时返回NotFound
	_, err = svc.Query(ctx, "svc-missing", 24, 100)
	require.Error(t, err)
	assert.Equal(t, storage.ErrNotFound, storage.ErrorCode(err))

	// 不指定服务时查询全部历史
	require.NoError(t, history.AppendEntry(ctx, &model.HealthHistoryEntry{
		ID:        "e1",
		ServiceID: "svc-a",
		Status:    model.HealthStatusHealthy,
		CreatedAt: time.Now(),
	}))
	entries, err = svc.Query(ctx, "", 24, 100)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
