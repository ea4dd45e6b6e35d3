package storage

import (
	"context"
	"time"

	"github.com/afenda/kernel/pkg/model"
)

// ServiceStore 定义服务注册表存储接口
type ServiceStore interface {
	// RegisterService 注册服务，ID已存在时返回AlreadyExists错误
	RegisterService(ctx context.Context, service *model.ServiceDescriptor) error

	// GetService 获取服务详情，不存在时返回NotFound错误
	GetService(ctx context.Context, serviceID string) (*model.ServiceDescriptor, error)

	// UpdateService 整体覆盖服务记录，不存在时返回NotFound错误
	UpdateService(ctx context.Context, service *model.ServiceDescriptor) error

	// DeregisterService 注销服务，不存在时返回NotFound错误
	DeregisterService(ctx context.Context, serviceID string) error

	// ListServices 按注册顺序返回全部服务
	ListServices(ctx context.Context) ([]*model.ServiceDescriptor, error)
}

// HistoryQuery 历史记录查询条件
type HistoryQuery struct {
	ServiceID string    // 为空时查询全部服务
	Since     time.Time // 窗口起点，零值表示不限制
	Limit     int       // 最大返回条数，0表示不限制
}

// HistoryStore 定义探测历史存储接口
// 历史记录只追加：接口不提供更新或删除，过期记录由保留策略清理
type HistoryStore interface {
	// AppendEntry 追加一条探测历史记录
	AppendEntry(ctx context.Context, entry *model.HealthHistoryEntry) error

	// QueryEntries 按条件查询历史记录，按时间从新到旧排序
	QueryEntries(ctx context.Context, query HistoryQuery) ([]*model.HealthHistoryEntry, error)
}

// StorageError 定义存储操作可能返回的错误类型
type StorageError struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *StorageError) Error() string {
	return e.Message
}

// 定义错误代码
const (
	// ErrNotFound 资源不存在
	ErrNotFound = iota + 1
	// ErrAlreadyExists 资源已存在
	ErrAlreadyExists
	// ErrInvalidArgument 参数无效
	ErrInvalidArgument
	// ErrInternal 内部错误
	ErrInternal
)

// NewNotFoundError 创建资源不存在错误
func NewNotFoundError(message string) *StorageError {
	return &StorageError{Code: ErrNotFound, Message: message}
}

// NewAlreadyExistsError 创建资源已存在错误
func NewAlreadyExistsError(message string) *StorageError {
	return &StorageError{Code: ErrAlreadyExists, Message: message}
}

// NewInvalidArgumentError 创建参数无效错误
func NewInvalidArgumentError(message string) *StorageError {
	return &StorageError{Code: ErrInvalidArgument, Message: message}
}

// NewInternalError 创建内部错误
func NewInternalError(message string) *StorageError {
	return &StorageError{Code: ErrInternal, Message: message}
}

// ErrorCode 提取存储错误代码，非StorageError时归类为内部错误
func ErrorCode(err error) int {
	if se, ok := err.(*StorageError); ok {
		return se.Code
	}
	return ErrInternal
}
