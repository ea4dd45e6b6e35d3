package model

import "time"

// HealthStatus 表示服务健康状态
type HealthStatus string

const (
	// HealthStatusHealthy 健康状态
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusDegraded 降级状态
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusDown 不可用状态
	HealthStatusDown HealthStatus = "down"
)

// HealthProbeResult 表示一次健康探测的结果
// Error 仅在传输层失败（网络错误、超时）时填充；HTTP非2xx响应时为空，
// 以区分"服务有响应但不健康"和"服务无法访问"两种情况
type HealthProbeResult struct {
	ServiceID  string       `json:"service_id"`  // 被探测的服务ID
	Status     HealthStatus `json:"status"`      // 探测结果状态
	LatencyMs  *int64       `json:"latency_ms"`  // 探测耗时(毫秒)，探测未能发起时为空
	StatusCode int          `json:"status_code"` // HTTP响应状态码，无响应时为0
	Error      string       `json:"error,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"` // 探测时间
}

// HealthHistoryEntry 表示一条持久化的探测历史记录
// 记录只追加，不更新不删除，过期清理由保留策略负责
type HealthHistoryEntry struct {
	ID        string       `json:"id"`         // 记录唯一ID
	ServiceID string       `json:"service_id"` // 服务ID，服务注销后记录仍保留
	Status    HealthStatus `json:"status"`     // 探测结果状态
	LatencyMs *int64       `json:"latency_ms"` // 探测耗时(毫秒)
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"` // 记录时间
}

// HealthSummary 按状态统计的服务数量
type HealthSummary struct {
	Total    int `json:"total"`
	Healthy  int `json:"healthy"`
	Degraded int `json:"degraded"`
	Down     int `json:"down"`
}

// SystemHealthSnapshot 表示一次全量探测后的系统健康快照
// 由实时探测计算得出，不持久化
type SystemHealthSnapshot struct {
	Status        HealthStatus        `json:"status"`         // 整体状态：down > degraded > healthy
	Timestamp     time.Time           `json:"timestamp"`      // 快照生成时间
	UptimeSeconds int64               `json:"uptime_seconds"` // 本进程运行时长(秒)
	Services      []HealthProbeResult `json:"services"`       // 各服务的探测结果
	Summary       HealthSummary       `json:"summary"`        // 状态统计
}

// UptimeStatistic 表示单个服务在时间窗口内的可用率统计
type UptimeStatistic struct {
	ServiceID   string `json:"service_id"`
	WindowHours int    `json:"window_hours"` // 统计窗口(小时)
	Percentage  int    `json:"percentage"`   // 健康探测占比(0-100)，四舍五入到整数
	SampleCount int    `json:"sample_count"` // 窗口内样本数量
}
