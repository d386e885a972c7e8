package logger

import (
	"log/slog"
	"os"
	"strings"
)

// 环境变量
const (
	// EnvLogLevel 日志级别，格式: 组件=级别,组件=级别,默认级别
	EnvLogLevel = "GRAPH_LOG_LEVEL"
	// EnvLogFormat 日志格式（text 或 json）
	EnvLogFormat = "GRAPH_LOG_FORMAT"
)

// Format 日志输出格式
type Format int

const (
	// FormatText 文本格式（默认）
	FormatText Format = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// ComponentLevels 各组件的日志级别
	//
	// 键可以是完整组件名（core/entitylistener）或最后一段（entitylistener）。
	ComponentLevels map[string]slog.Level

	// Format 输出格式
	Format Format

	// AddSource 是否添加源码位置
	AddSource bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		DefaultLevel:    slog.LevelInfo,
		ComponentLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}
}

// LevelFor 获取指定组件的日志级别
func (c Config) LevelFor(component string) slog.Level {
	if level, ok := c.ComponentLevels[component]; ok {
		return level
	}
	if i := strings.LastIndex(component, "/"); i >= 0 {
		if level, ok := c.ComponentLevels[component[i+1:]]; ok {
			return level
		}
	}
	return c.DefaultLevel
}

// ConfigFromEnv 从环境变量构造配置
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if spec := os.Getenv(EnvLogLevel); spec != "" {
		ApplyLevelSpec(&cfg, spec)
	}
	if format := os.Getenv(EnvLogFormat); format != "" {
		cfg.Format = ParseFormat(format)
	}
	return cfg
}

// ApplyLevelSpec 解析级别配置字符串
//
// 格式: 组件=级别,组件=级别,默认级别
// 示例: entitylistener=debug,nodemgr=warn,info
// 无法识别的级别被忽略。
func ApplyLevelSpec(cfg *Config, spec string) {
	if cfg.ComponentLevels == nil {
		cfg.ComponentLevels = make(map[string]slog.Level)
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if component, levelName, ok := strings.Cut(part, "="); ok {
			if level, ok := ParseLevel(strings.TrimSpace(levelName)); ok {
				cfg.ComponentLevels[strings.TrimSpace(component)] = level
			}
			continue
		}
		if level, ok := ParseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ParseFormat 解析日志格式名称
func ParseFormat(name string) Format {
	if strings.EqualFold(name, "json") {
		return FormatJSON
	}
	return FormatText
}
