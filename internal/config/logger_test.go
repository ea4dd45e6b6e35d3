package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	// 开发模式
	logger, err := NewLogger("debug", true)
	require.NoError(t, err)
	require.NotNil(t, logger)

	// 生产模式
	logger, err = NewLogger("info", false)
	require.NoError(t, err)
	require.NotNil(t, logger)

	// 日志方法不应panic
	logger.Debug("调试日志", zap.String("key", "value"))
	logger.Info("信息日志")
	logger.Warn("警告日志")
	logger.Error("错误日志")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("不是级别", false)
	assert.Error(t, err)
}

func TestLogger_With(t *testing.T) {
	logger, err := NewLogger("info", false)
	require.NoError(t, err)

	child := logger.With(zap.String("component", "test"))
	require.NotNil(t, child)
	child.Info("携带字段的日志")
}
