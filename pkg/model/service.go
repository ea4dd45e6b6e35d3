package model

import (
	"net/url"
	"time"
)

// DefaultProbeTimeoutMs 健康探测默认超时时间(毫秒)
const DefaultProbeTimeoutMs = 5000

// ServiceDescriptor 表示一个注册到内核的下游服务
type ServiceDescriptor struct {
	ID           string            `json:"id"`            // 服务唯一ID
	Name         string            `json:"name"`          // 服务展示名称
	Endpoint     string            `json:"endpoint"`      // 服务基础地址(URL)
	HealthPath   string            `json:"health_path"`   // 健康检查相对路径
	TimeoutMs    int               `json:"timeout_ms"`    // 健康探测超时(毫秒)
	Metadata     map[string]string `json:"metadata"`      // 服务元数据
	RegisteredAt time.Time         `json:"registered_at"` // 注册时间
	UpdatedAt    time.Time         `json:"updated_at"`    // 最后更新时间
}

// ProbeTimeout 返回探测超时时长，未配置时使用默认值
func (s *ServiceDescriptor) ProbeTimeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return DefaultProbeTimeoutMs * time.Millisecond
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// HealthCheckURL 按标准URL解析规则拼接健康检查地址
func (s *ServiceDescriptor) HealthCheckURL() (string, error) {
	base, err := url.Parse(s.Endpoint)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(s.HealthPath)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// AuditRecord 表示一次注册表变更的审计记录
// 审计落库由外部采集方负责，这里只保证变更前后数据完整
type AuditRecord struct {
	Action    string             `json:"action"` // 操作类型，如 service.register
	Actor     string             `json:"actor"`  // 操作者ID，匿名时为 anonymous
	ServiceID string             `json:"service_id"`
	Before    *ServiceDescriptor `json:"before,omitempty"` // 变更前数据
	After     *ServiceDescriptor `json:"after,omitempty"`  // 变更后数据
	At        time.Time          `json:"at"`
}
