package health

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/pkg/model"
	"github.com/afenda/kernel/pkg/storage"
)

// DefaultProbeConcurrency 全量探测的默认并发上限
const DefaultProbeConcurrency = 50

// recordTimeout 历史写入的独立超时，与触发请求的生命周期解耦
const recordTimeout = 2 * time.Second

// processStart 进程启动时刻，time.Time内部携带单调时钟读数，
// 系统时间被调整时运行时长统计不受影响
var processStart = time.Now()

// Aggregator 对注册表中的全部服务并发探测并汇总为系统健康快照
type Aggregator struct {
	services    storage.ServiceStore
	history     storage.HistoryStore
	prober      *Prober
	logger      config.Logger
	concurrency int
}

// NewAggregator 创建系统健康聚合器
func NewAggregator(services storage.ServiceStore, history storage.HistoryStore, prober *Prober, logger config.Logger, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultProbeConcurrency
	}
	return &Aggregator{
		services:    services,
		history:     history,
		prober:      prober,
		logger:      logger,
		concurrency: concurrency,
	}
}

// CheckAll 探测全部注册服务并汇总
// 各服务的探测相互独立：单个探测超时或失败只体现为该服务的down结果，
// 仅注册表读取失败时才向调用方返回错误
func (a *Aggregator) CheckAll(ctx context.Context) (*model.SystemHealthSnapshot, error) {
	services, err := a.services.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.HealthProbeResult, len(services))

	g, probeCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, service := range services {
		g.Go(func() error {
			results[i] = a.prober.Probe(probeCtx, service)
			a.recordResult(results[i])
			return nil
		})
	}
	// 探测任务不返回错误，Wait只用于等待全部完成
	g.Wait()

	snapshot := &model.SystemHealthSnapshot{
		Status:        foldStatuses(results),
		Timestamp:     time.Now(),
		UptimeSeconds: int64(time.Since(processStart).Seconds()),
		Services:      results,
		Summary:       summarize(results),
	}

	return snapshot, nil
}

// CheckOne 按需探测单个服务，服务不存在时返回NotFound错误
func (a *Aggregator) CheckOne(ctx context.Context, serviceID string) (*model.HealthProbeResult, error) {
	service, err := a.services.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	result := a.prober.Probe(ctx, service)
	a.recordResult(result)
	return &result, nil
}

// recordResult 将探测结果写入历史，写入失败只记日志，不影响探测结果返回
func (a *Aggregator) recordResult(result model.HealthProbeResult) {
	// 使用独立context，触发请求被取消时已完成的探测结果仍然入库
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := &model.HealthHistoryEntry{
		ID:        uuid.New().String(),
		ServiceID: result.ServiceID,
		Status:    result.Status,
		LatencyMs: result.LatencyMs,
		Error:     result.Error,
		CreatedAt: result.CheckedAt,
	}

	if err := a.history.AppendEntry(ctx, entry); err != nil {
		a.logger.Warn("写入探测历史失败",
			zap.String("service_id", result.ServiceID),
			zap.Error(err),
		)
	}
}

// foldStatuses 将多个服务状态折叠为整体状态
// 严格三级优先：任一down则整体down；否则任一degraded则整体degraded；
// 否则healthy。空集合视为healthy（没有服务在失败）
func foldStatuses(results []model.HealthProbeResult) model.HealthStatus {
	overall := model.HealthStatusHealthy
	for _, r := range results {
		if r.Status == model.HealthStatusDown {
			return model.HealthStatusDown
		}
		if r.Status == model.HealthStatusDegraded {
			overall = model.HealthStatusDegraded
		}
	}
	return overall
}

// summarize 按状态统计服务数量
func summarize(results []model.HealthProbeResult) model.HealthSummary {
	summary := model.HealthSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case model.HealthStatusHealthy:
			summary.Healthy++
		case model.HealthStatusDegraded:
			summary.Degraded++
		case model.HealthStatusDown:
			summary.Down++
		}
	}
	return summary
}

// UptimeSeconds 返回进程运行时长(秒)
func UptimeSeconds() int64 {
	return int64(time.Since(processStart).Seconds())
}
