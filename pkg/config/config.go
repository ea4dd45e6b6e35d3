package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 定义整个应用的配置结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	AdminToken string `mapstructure:"admin_token"` // 为空时不启用写操作鉴权
}

// StorageConfig 存储后端配置
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "etcd" 或 "memory"
}

// EtcdConfig etcd配置
type EtcdConfig struct {
	Endpoints   []string `mapstructure:"endpoints"`
	DialTimeout string   `mapstructure:"dial_timeout"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
}

// ProbeConfig 健康探测配置
type ProbeConfig struct {
	DefaultTimeoutMs  int    `mapstructure:"default_timeout_ms"` // 服务未声明超时时使用
	DegradedThreshold string `mapstructure:"degraded_threshold"` // 2xx响应慢于该时长判定为degraded，为空不启用
	Concurrency       int    `mapstructure:"concurrency"`        // 全量探测的并发上限
}

// HistoryConfig 探测历史配置
type HistoryConfig struct {
	Retention          string `mapstructure:"retention"`            // 记录保留时长，为空永久保留
	MaxEntriesInMemory int    `mapstructure:"max_entries_inmemory"` // 内存后端单服务保留条数
	DefaultWindowHours int    `mapstructure:"default_window_hours"` // 查询默认窗口(小时)
	DefaultLimit       int    `mapstructure:"default_limit"`        // 查询默认条数上限
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// LoadConfig 从文件和环境变量加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 默认查找路径
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/afenda-kernel")
		v.SetConfigName("config")
	}
	v.SetConfigType("yaml")

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时不返回错误
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件错误: %w", err)
		}
	}

	// 从环境变量读取配置
	v.SetEnvPrefix("AFENDA_KERNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 解析配置到结构体
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置错误: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.admin_token", "")

	// 存储默认配置
	v.SetDefault("storage.backend", "etcd")

	// etcd默认配置
	v.SetDefault("etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.dial_timeout", "5s")

	// 探测默认配置
	v.SetDefault("probe.default_timeout_ms", 5000)
	v.SetDefault("probe.degraded_threshold", "")
	v.SetDefault("probe.concurrency", 50)

	// 历史默认配置
	v.SetDefault("history.retention", "168h")
	v.SetDefault("history.max_entries_inmemory", 1000)
	v.SetDefault("history.default_window_hours", 24)
	v.SetDefault("history.default_limit", 100)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}
