// Package logger 安装进程级日志配置
//
// 各组件通过 pkg/lib/log 获取 logger，本包负责把输出目标、格式和
// 组件级别装配成 slog 默认 handler：
//
//	logger.SetOutput(os.Stderr)
//	logger.Install(logger.ConfigFromEnv())
//
// 环境变量:
//
//	# 所有组件 info，entitylistener 为 debug
//	GRAPH_LOG_LEVEL=entitylistener=debug,info
//
//	# JSON 输出
//	GRAPH_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
)

// Install 按配置安装 slog 默认 logger
func Install(cfg Config) *slog.Logger {
	l := slog.New(newComponentHandler(cfg))
	slog.SetDefault(l)
	return l
}

// SetOutput 设置全局日志输出目标
//
// 已安装的 handler 通过 dynamicWriter 自动重定向。
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}

// Discard 返回丢弃所有日志的 logger（用于测试）
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}
