package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/afenda/kernel/pkg/model"
	"github.com/afenda/kernel/pkg/storage"
)

// RegistryStore 是基于内存的服务注册表实现，主要用于测试和开发环境
type RegistryStore struct {
	services map[string]*model.ServiceDescriptor
	order    []string // 维护注册顺序，ListServices按此顺序返回
	mutex    sync.RWMutex
}

// NewRegistryStore 创建新的内存注册表
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{
		services: make(map[string]*model.ServiceDescriptor),
	}
}

// RegisterService 注册服务
func (m *RegistryStore) RegisterService(ctx context.Context, service *model.ServiceDescriptor) error {
	if service.ID == "" || service.Endpoint == "" {
		return storage.NewInvalidArgumentError("服务ID和地址不能为空")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.services[service.ID]; exists {
		return storage.NewAlreadyExistsError(fmt.Sprintf("服务已存在: %s", service.ID))
	}

	now := time.Now()
	if service.RegisteredAt.IsZero() {
		service.RegisteredAt = now
	}
	if service.UpdatedAt.IsZero() {
		service.UpdatedAt = service.RegisteredAt
	}

	m.services[service.ID] = cloneDescriptor(service)
	m.order = append(m.order, service.ID)
	return nil
}

// GetService 获取服务详情
func (m *RegistryStore) GetService(ctx context.Context, serviceID string) (*model.ServiceDescriptor, error) {
	if serviceID == "" {
		return nil, storage.NewInvalidArgumentError("服务ID不能为空")
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	service, exists := m.services[serviceID]
	if !exists {
		return nil, storage.NewNotFoundError(fmt.Sprintf("服务不存在: %s", serviceID))
	}

	return cloneDescriptor(service), nil
}

// UpdateService 整体覆盖服务记录
func (m *RegistryStore) UpdateService(ctx context.Context, service *model.ServiceDescriptor) error {
	if service.ID == "" {
		return storage.NewInvalidArgumentError("服务ID不能为空")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.services[service.ID]; !exists {
		return storage.NewNotFoundError(fmt.Sprintf("服务不存在: %s", service.ID))
	}

	m.services[service.ID] = cloneDescriptor(service)
	return nil
}

// DeregisterService 注销服务
func (m *RegistryStore) DeregisterService(ctx context.Context, serviceID string) error {
	if serviceID == "" {
		return storage.NewInvalidArgumentError("服务ID不能为空")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.services[serviceID]; !exists {
		return storage.NewNotFoundError(fmt.Sprintf("服务不存在: %s", serviceID))
	}

	delete(m.services, serviceID)
	for i, id := range m.order {
		if id == serviceID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListServices 按注册顺序返回全部服务
func (m *RegistryStore) ListServices(ctx context.Context) ([]*model.ServiceDescriptor, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	services := make([]*model.ServiceDescriptor, 0, len(m.order))
	for _, id := range m.order {
		services = append(services, cloneDescriptor(m.services[id]))
	}

	return services, nil
}

// cloneDescriptor 深拷贝服务描述，避免调用方修改影响存储内部状态
func cloneDescriptor(service *model.ServiceDescriptor) *model.ServiceDescriptor {
	copied := *service
	if service.Metadata != nil {
		copied.Metadata = make(map[string]string, len(service.Metadata))
		for k, v := range service.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}
