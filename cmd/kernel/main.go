package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	iconfig "github.com/afenda/kernel/internal/config"
	"github.com/afenda/kernel/internal/server"
	"github.com/afenda/kernel/pkg/config"
	"github.com/afenda/kernel/pkg/storage"
	etcdstore "github.com/afenda/kernel/pkg/storage/etcd"
	memorystore "github.com/afenda/kernel/pkg/storage/memory"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	logger, err := iconfig.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	// 初始化存储
	services, history, cleanup, err := buildStores(cfg)
	if err != nil {
		logger.Fatal("初始化存储失败", zap.Error(err))
	}
	defer cleanup()

	// 组装并启动服务
	srv, err := server.NewServer(cfg, logger, services, history)
	if err != nil {
		logger.Fatal("组装服务失败", zap.Error(err))
	}
	if err := srv.Start(); err != nil {
		logger.Fatal("启动服务失败", zap.Error(err))
	}

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始优雅关闭")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务失败", zap.Error(err))
	}

	logger.Info("内核健康服务已退出")
}

// buildStores 按配置创建存储后端
func buildStores(cfg *config.Config) (storage.ServiceStore, storage.HistoryStore, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		// 内存后端用于开发和测试，进程重启后数据丢失
		return memorystore.NewRegistryStore(),
			memorystore.NewHistoryStoreWithCapacity(cfg.History.MaxEntriesInMemory),
			func() {}, nil

	case "etcd":
		client, err := etcdstore.NewClient(&cfg.Etcd)
		if err != nil {
			return nil, nil, nil, err
		}

		var retention time.Duration
		if cfg.History.Retention != "" {
			retention, err = time.ParseDuration(cfg.History.Retention)
			if err != nil {
				client.Close()
				return nil, nil, nil, fmt.Errorf("解析历史保留时长失败: %w", err)
			}
		}

		return etcdstore.NewRegistryStore(client),
			etcdstore.NewHistoryStore(client, retention),
			func() { client.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("不支持的存储后端: %s", cfg.Storage.Backend)
	}
}
