package etcd

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/afenda/kernel/pkg/config"
)

const (
	servicesPrefix = "/afenda/kernel/services/"
	historyPrefix  = "/afenda/kernel/history/"
)

// Client 封装etcd客户端
type Client struct {
	client *clientv3.Client
}

// NewClient 创建新的etcd客户端
func NewClient(cfg *config.EtcdConfig) (*Client, error) {
	// 解析超时时间
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("解析etcd超时时间失败: %w", err)
	}

	// 创建etcd客户端
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("连接etcd失败: %w", err)
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	_, err = client.Status(ctx, cfg.Endpoints[0])
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("etcd连接测试失败: %w", err)
	}

	return &Client{client: client}, nil
}

// Close 关闭etcd客户端连接
func (c *Client) Close() error {
	return c.client.Close()
}

// GetClient 获取原始etcd客户端
func (c *Client) GetClient() *clientv3.Client {
	return c.client
}

// ServiceKey 获取服务描述的完整存储键
func (c *Client) ServiceKey(serviceID string) string {
	return servicesPrefix + serviceID
}

// ServicesPrefix 获取服务列表的键前缀
func (c *Client) ServicesPrefix() string {
	return servicesPrefix
}

// HistoryKey 获取历史记录的完整存储键
// 键中包含RFC3339Nano时间戳，使同一服务的记录按时间有序
func (c *Client) HistoryKey(serviceID string, createdAt time.Time, entryID string) string {
	return historyPrefix + serviceID + "/" + createdAt.UTC().Format(time.RFC3339Nano) + "-" + entryID
}

// HistoryServicePrefix 获取单个服务历史记录的键前缀
func (c *Client) HistoryServicePrefix(serviceID string) string {
	return historyPrefix + serviceID + "/"
}

// HistoryPrefix 获取全部历史记录的键前缀
func (c *Client) HistoryPrefix() string {
	return historyPrefix
}
