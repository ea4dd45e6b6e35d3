package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/afenda/kernel/pkg/model"
	"github.com/afenda/kernel/pkg/storage"
)

// DefaultMaxEntriesPerService 单个服务在内存中保留的最大历史条数
const DefaultMaxEntriesPerService = 1000

// historyRecord 内部存储结构，seq为全局写入序号，保证排序稳定
type historyRecord struct {
	seq   int64
	entry *model.HealthHistoryEntry
}

// HistoryStore 是基于内存的探测历史存储实现
// 按服务维护写入顺序的记录列表，超出容量时淘汰最旧的记录
type HistoryStore struct {
	records   map[string][]historyRecord
	maxPerSvc int
	appendSeq int64
	mutex     sync.RWMutex
}

// NewHistoryStore 创建新的内存历史存储
func NewHistoryStore() *HistoryStore {
	return NewHistoryStoreWithCapacity(DefaultMaxEntriesPerService)
}

// NewHistoryStoreWithCapacity 创建指定单服务容量的内存历史存储
func NewHistoryStoreWithCapacity(maxPerService int) *HistoryStore {
	if maxPerService <= 0 {
		maxPerService = DefaultMaxEntriesPerService
	}
	return &HistoryStore{
		records:   make(map[string][]historyRecord),
		maxPerSvc: maxPerService,
	}
}

// AppendEntry 追加一条探测历史记录
func (m *HistoryStore) AppendEntry(ctx context.Context, entry *model.HealthHistoryEntry) error {
	if entry.ServiceID == "" {
		return storage.NewInvalidArgumentError("服务ID不能为空")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	copied := *entry
	m.appendSeq++
	list := append(m.records[entry.ServiceID], historyRecord{seq: m.appendSeq, entry: &copied})

	// 超出容量时淘汰最旧的记录，保留策略的内存版实现
	if len(list) > m.maxPerSvc {
		list = list[1:]
	}
	m.records[entry.ServiceID] = list

	return nil
}

// QueryEntries 按条件查询历史记录，按写入顺序从新到旧返回
func (m *HistoryStore) QueryEntries(ctx context.Context, query storage.HistoryQuery) ([]*model.HealthHistoryEntry, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var matched []historyRecord
	for serviceID, list := range m.records {
		if query.ServiceID != "" && serviceID != query.ServiceID {
			continue
		}
		for _, record := range list {
			if !query.Since.IsZero() && record.entry.CreatedAt.Before(query.Since) {
				continue
			}
			matched = append(matched, record)
		}
	}

	// 按写入序号降序，即从新到旧
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq > matched[j].seq
	})

	limit := len(matched)
	if query.Limit > 0 && query.Limit < limit {
		limit = query.Limit
	}

	results := make([]*model.HealthHistoryEntry, 0, limit)
	for _, record := range matched[:limit] {
		copied := *record.entry
		results = append(results, &copied)
	}

	return results, nil
}
