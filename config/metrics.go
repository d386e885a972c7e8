package config

import "fmt"

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否注册 Prometheus 指标
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace 指标名前缀
	Namespace string `json:"namespace" yaml:"namespace"`

	// ListenAddr /metrics 监听地址，为空时不对外暴露
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "dep2p_graph",
	}
}

// Validate 验证指标配置
func (c *MetricsConfig) Validate() error {
	if c.Enabled && c.Namespace == "" {
		return fmt.Errorf("metrics: namespace cannot be empty when enabled")
	}
	return nil
}
