package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/afenda/kernel/pkg/model"
	"github.com/afenda/kernel/pkg/storage"
)

// RegistryStore 实现基于etcd的服务注册表
type RegistryStore struct {
	client *Client
}

// NewRegistryStore 创建etcd服务注册表
func NewRegistryStore(client *Client) *RegistryStore {
	return &RegistryStore{client: client}
}

// RegisterService 注册服务
// 通过etcd事务保证键不存在时才写入，重复注册返回AlreadyExists
func (s *RegistryStore) RegisterService(ctx context.Context, service *model.ServiceDescriptor) error {
	if service.ID == "" || service.Endpoint == "" {
		return storage.NewInvalidArgumentError("服务ID和地址不能为空")
	}

	now := time.Now()
	if service.RegisteredAt.IsZero() {
		service.RegisteredAt = now
	}
	if service.UpdatedAt.IsZero() {
		service.UpdatedAt = service.RegisteredAt
	}

	data, err := json.Marshal(service)
	if err != nil {
		return storage.NewInternalError(fmt.Sprintf("序列化服务数据失败: %v", err))
	}

	key := s.client.ServiceKey(service.ID)
	resp, err := s.client.GetClient().Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return storage.NewInternalError(fmt.Sprintf("写入etcd失败: %v", err))
	}
	if !resp.Succeeded {
		return storage.NewAlreadyExistsError(fmt.Sprintf("服务已存在: %s", service.ID))
	}

	return nil
}

// GetService 获取服务详情
func (s *RegistryStore) GetService(ctx context.Context, serviceID string) (*model.ServiceDescriptor, error) {
	if serviceID == "" {
		return nil, storage.NewInvalidArgumentError("服务ID不能为空")
	}

	resp, err := s.client.GetClient().Get(ctx, s.client.ServiceKey(serviceID))
	if err != nil {
		return nil, storage.NewInternalError(fmt.Sprintf("从etcd读取失败: %v", err))
	}
	if len(resp.Kvs) == 0 {
		return nil, storage.NewNotFoundError(fmt.Sprintf("服务不存在: %s", serviceID))
	}

	var service model.ServiceDescriptor
	if err := json.Unmarshal(resp.Kvs[0].Value, &service); err != nil {
		return nil, storage.NewInternalError(fmt.Sprintf("解析服务数据失败: %v", err))
	}

	return &service, nil
}

// UpdateService 整体覆盖服务记录
// 通过etcd事务保证键已存在时才写入，避免更新复活已注销的服务
func (s *RegistryStore) UpdateService(ctx context.Context, service *model.ServiceDescriptor) error {
	if service.ID == "" {
		return storage.NewInvalidArgumentError("服务ID不能为空")
	}

	data, err := json.Marshal(service)
	if err != nil {
		return storage.NewInternalError(fmt.Sprintf("序列化服务数据失败: %v", err))
	}

	key := s.client.ServiceKey(service.ID)
	resp, err := s.client.GetClient().Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), ">", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return storage.NewInternalError(fmt.Sprintf("写入etcd失败: %v", err))
	}
	if !resp.Succeeded {
		return storage.NewNotFoundError(fmt.Sprintf("服务不存在: %s", service.ID))
	}

	return nil
}

// DeregisterService 注销服务
// 历史记录不做级联删除，由保留策略负责清理
func (s *RegistryStore) DeregisterService(ctx context.Context, serviceID string) error {
	if serviceID == "" {
		return storage.NewInvalidArgumentError("服务ID不能为空")
	}

	resp, err := s.client.GetClient().Delete(ctx, s.client.ServiceKey(serviceID))
	if err != nil {
		return storage.NewInternalError(fmt.Sprintf("从etcd删除失败: %v", err))
	}
	if resp.Deleted == 0 {
		return storage.NewNotFoundError(fmt.Sprintf("服务不存在: %s", serviceID))
	}

	return nil
}

// ListServices 返回全部服务，按注册时间排序
func (s *RegistryStore) ListServices(ctx context.Context) ([]*model.ServiceDescriptor, error) {
	resp, err := s.client.GetClient().Get(ctx, s.client.ServicesPrefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, storage.NewInternalError(fmt.Sprintf("从etcd读取失败: %v", err))
	}

	services := make([]*model.ServiceDescriptor, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var service model.ServiceDescriptor
		if err := json.Unmarshal(kv.Value, &service); err != nil {
			return nil, storage.NewInternalError(fmt.Sprintf("解析服务数据失败: %v", err))
		}
		services = append(services, &service)
	}

	sort.Slice(services, func(i, j int) bool {
		return services[i].RegisteredAt.Before(services[j].RegisteredAt)
	})

	return services, nil
}
