package config

import (
	"fmt"
	"time"
)

// GraphConfig 发现图配置
type GraphConfig struct {
	// Identifier 实现标识，节点句柄携带该值用于校验
	Identifier string `json:"identifier" yaml:"identifier"`

	// NoDemangle 图查询默认返回原始传输层名称
	NoDemangle bool `json:"no_demangle" yaml:"no_demangle"`

	// DemangleCacheSize 反混淆 LRU 缓存容量
	DemangleCacheSize int `json:"demangle_cache_size" yaml:"demangle_cache_size"`

	// SampleBufferCapacity 监听器每批次样本序列的初始容量
	SampleBufferCapacity int `json:"sample_buffer_capacity" yaml:"sample_buffer_capacity"`

	// FailureLogInterval 批次失败日志的最小间隔
	FailureLogInterval Duration `json:"failure_log_interval" yaml:"failure_log_interval"`
}

// DefaultGraphConfig 返回默认发现图配置
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		Identifier:           "dep2p_graph",
		DemangleCacheSize:    1024,
		SampleBufferCapacity: 8,
		FailureLogInterval:   Duration(5 * time.Second),
	}
}

// Validate 验证发现图配置
func (c *GraphConfig) Validate() error {
	if c.Identifier == "" {
		return fmt.Errorf("graph: identifier cannot be empty")
	}
	if c.DemangleCacheSize <= 0 {
		return fmt.Errorf("graph: demangle_cache_size must be positive, got %d", c.DemangleCacheSize)
	}
	if c.SampleBufferCapacity <= 0 {
		return fmt.Errorf("graph: sample_buffer_capacity must be positive, got %d", c.SampleBufferCapacity)
	}
	if c.FailureLogInterval < 0 {
		return fmt.Errorf("graph: failure_log_interval cannot be negative")
	}
	return nil
}
