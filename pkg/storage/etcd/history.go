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

// HistoryStore 实现基于etcd的探测历史存储
// 每条记录独立成键，写入时附加保留期租约，到期由etcd自动清理
type HistoryStore struct {
	client    *Client
	retention time.Duration
}

// NewHistoryStore 创建etcd历史存储，retention为0时记录永久保留
func NewHistoryStore(client *Client, retention time.Duration) *HistoryStore {
	return &HistoryStore{
		client:    client,
		retention: retention,
	}
}

// AppendEntry 追加一条探测历史记录
func (s *HistoryStore) AppendEntry(ctx context.Context, entry *model.HealthHistoryEntry) error {
	if entry.ServiceID == "" {
		return storage.NewInvalidArgumentError("服务ID不能为空")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return storage.NewInternalError(fmt.Sprintf("序列化历史记录失败: %v", err))
	}

	key := s.client.HistoryKey(entry.ServiceID, entry.CreatedAt, entry.ID)

	// 配置了保留期时通过租约实现自动过期
	if s.retention > 0 {
		lease, err := s.client.GetClient().Grant(ctx, int64(s.retention.Seconds()))
		if err != nil {
			return storage.NewInternalError(fmt.Sprintf("创建etcd租约失败: %v", err))
		}
		_, err = s.client.GetClient().Put(ctx, key, string(data), clientv3.WithLease(lease.ID))
		if err != nil {
			return storage.NewInternalError(fmt.Sprintf("写入etcd失败: %v", err))
		}
		return nil
	}

	if _, err := s.client.GetClient().Put(ctx, key, string(data)); err != nil {
		return storage.NewInternalError(fmt.Sprintf("写入etcd失败: %v", err))
	}
	return nil
}

// QueryEntries 按条件查询历史记录，按记录时间从新到旧返回
func (s *HistoryStore) QueryEntries(ctx context.Context, query storage.HistoryQuery) ([]*model.HealthHistoryEntry, error) {
	prefix := s.client.HistoryPrefix()
	if query.ServiceID != "" {
		prefix = s.client.HistoryServicePrefix(query.ServiceID)
	}

	resp, err := s.client.GetClient().Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, storage.NewInternalError(fmt.Sprintf("从etcd读取失败: %v", err))
	}

	entries := make([]*model.HealthHistoryEntry, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var entry model.HealthHistoryEntry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			return nil, storage.NewInternalError(fmt.Sprintf("解析历史记录失败: %v", err))
		}
		if !query.Since.IsZero() && entry.CreatedAt.Before(query.Since) {
			continue
		}
		entries = append(entries, &entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if query.Limit > 0 && query.Limit < len(entries) {
		entries = entries[:query.Limit]
	}

	return entries, nil
}
