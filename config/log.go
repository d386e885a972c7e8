package config

import (
	"fmt"
	"strings"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 级别配置，格式同 GRAPH_LOG_LEVEL: 组件=级别,...,默认级别
	Level string `json:"level" yaml:"level"`

	// Format 输出格式: text 或 json
	Format string `json:"format" yaml:"format"`

	// File 日志文件路径，为空时输出到 stderr
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("log: unsupported format %q", c.Format)
	}
}
