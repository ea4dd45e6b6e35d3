package registry

import (
	"context"
	"time"

	"github.com/afenda/kernel/pkg/model"
	"github.com/afenda/kernel/pkg/storage"
)

// 审计操作类型
const (
	ActionRegister   = "service.register"
	ActionUpdate     = "service.update"
	ActionUnregister = "service.unregister"
)

// AnonymousActor 未提供操作者身份时使用的占位符
const AnonymousActor = "anonymous"

// Service 服务注册表业务层
// 在存储之上补充默认值处理和审计记录，所有变更都携带变更前后数据
type Service struct {
	store storage.ServiceStore
	audit AuditRecorder
}

// NewService 创建注册表服务
func NewService(store storage.ServiceStore, audit AuditRecorder) *Service {
	return &Service{
		store: store,
		audit: audit,
	}
}

// Register 注册服务，ID已存在时返回AlreadyExists错误
func (s *Service) Register(ctx context.Context, descriptor *model.ServiceDescriptor, actor string) (*model.ServiceDescriptor, error) {
	if descriptor.TimeoutMs <= 0 {
		descriptor.TimeoutMs = model.DefaultProbeTimeoutMs
	}
	if descriptor.Metadata == nil {
		descriptor.Metadata = make(map[string]string)
	}

	// 注册前校验健康检查地址可以拼接
	if _, err := descriptor.HealthCheckURL(); err != nil {
		return nil, storage.NewInvalidArgumentError("健康检查地址无效: " + err.Error())
	}

	now := time.Now()
	descriptor.RegisteredAt = now
	descriptor.UpdatedAt = now

	if err := s.store.RegisterService(ctx, descriptor); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, model.AuditRecord{
		Action:    ActionRegister,
		Actor:     normalizeActor(actor),
		ServiceID: descriptor.ID,
		After:     descriptor,
		At:        now,
	})

	return descriptor, nil
}

// Get 获取服务详情
func (s *Service) Get(ctx context.Context, serviceID string) (*model.ServiceDescriptor, error) {
	return s.store.GetService(ctx, serviceID)
}

// UpdateMetadata 合并元数据字段，返回更新后的服务描述
// 审计记录携带变更前后的完整数据
func (s *Service) UpdateMetadata(ctx context.Context, serviceID string, patch map[string]string, actor string) (*model.ServiceDescriptor, error) {
	before, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	updated := *before
	updated.Metadata = make(map[string]string, len(before.Metadata)+len(patch))
	for k, v := range before.Metadata {
		updated.Metadata[k] = v
	}
	for k, v := range patch {
		updated.Metadata[k] = v
	}
	updated.UpdatedAt = time.Now()

	if err := s.store.UpdateService(ctx, &updated); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, model.AuditRecord{
		Action:    ActionUpdate,
		Actor:     normalizeActor(actor),
		ServiceID: serviceID,
		Before:    before,
		After:     &updated,
		At:        updated.UpdatedAt,
	})

	return &updated, nil
}

// Unregister 注销服务，重复注销返回NotFound错误
// 探测历史不做级联删除，保留供审计查询
func (s *Service) Unregister(ctx context.Context, serviceID string, actor string) error {
	before, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return err
	}

	if err := s.store.DeregisterService(ctx, serviceID); err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditRecord{
		Action:    ActionUnregister,
		Actor:     normalizeActor(actor),
		ServiceID: serviceID,
		Before:    before,
		At:        time.Now(),
	})

	return nil
}

// List 返回全部服务
func (s *Service) List(ctx context.Context) ([]*model.ServiceDescriptor, error) {
	return s.store.ListServices(ctx)
}

func normalizeActor(actor string) string {
	if actor == "" {
		return AnonymousActor
	}
	return actor
}
