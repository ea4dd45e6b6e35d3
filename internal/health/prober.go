package health

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/afenda/kernel/pkg/model"
)

// maxProbeBodyBytes 探测响应体最多读取的字节数，健康检查接口不应返回大响应
const maxProbeBodyBytes = 4 * 1024

// Prober 对单个服务执行限时HTTP健康探测
// Probe不向调用方返回error：所有失败都转化为探测结果，
// 保证单个服务故障不影响其他服务的评估
type Prober struct {
	client            *http.Client
	defaultTimeout    time.Duration
	degradedThreshold time.Duration // 2xx响应慢于该时长判定为degraded，0不启用
}

// ProberOption 探测器可选配置
type ProberOption func(*Prober)

// WithDefaultTimeout 设置服务未声明超时时的默认超时
func WithDefaultTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		if timeout > 0 {
			p.defaultTimeout = timeout
		}
	}
}

// WithDegradedThreshold 设置慢响应降级阈值
func WithDegradedThreshold(threshold time.Duration) ProberOption {
	return func(p *Prober) {
		p.degradedThreshold = threshold
	}
}

// WithHTTPClient 替换底层HTTP客户端，用于测试
func WithHTTPClient(client *http.Client) ProberOption {
	return func(p *Prober) {
		p.client = client
	}
}

// NewProber 创建健康探测器
// 超时由每次探测的context控制，客户端本身不设全局超时
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		client:         &http.Client{},
		defaultTimeout: model.DefaultProbeTimeoutMs * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe 对一个服务执行一次健康探测并分类结果
// 分类规则：2xx响应为healthy（慢于降级阈值时为degraded）；
// 收到非2xx响应为down且Error为空；传输层失败(网络错误、超时)为down且Error填充
func (p *Prober) Probe(ctx context.Context, service *model.ServiceDescriptor) model.HealthProbeResult {
	result := model.HealthProbeResult{
		ServiceID: service.ID,
		Status:    model.HealthStatusDown,
		CheckedAt: time.Now(),
	}

	checkURL, err := service.HealthCheckURL()
	if err != nil {
		result.Error = "健康检查地址无效: " + err.Error()
		return result
	}

	timeout := service.ProbeTimeout()
	if service.TimeoutMs <= 0 && p.defaultTimeout > 0 {
		timeout = p.defaultTimeout
	}

	// 超时通过context传递，到期时底层请求会被中止而不是继续挂起
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, checkURL, nil)
	if err != nil {
		result.Error = "创建探测请求失败: " + err.Error()
		return result
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	latency := time.Since(start).Milliseconds()
	result.LatencyMs = &latency

	if err != nil {
		// 网络错误或超时，Error填充以区分"有响应但不健康"
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	// 排空响应体以复用连接
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxProbeBodyBytes))

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.Status = model.HealthStatusHealthy
		if p.degradedThreshold > 0 && time.Duration(latency)*time.Millisecond > p.degradedThreshold {
			result.Status = model.HealthStatusDegraded
		}
	}

	return result
}
