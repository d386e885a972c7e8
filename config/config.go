// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 或 YAML 加载：
//
//	cfg := config.NewConfig()
//	cfg.Node.Name = "talker"
//
//	cfg, err := config.Load("graph.yaml")
package config

// Config 完整配置
//
//   - Node: 默认节点名、命名空间、域 ID
//   - Graph: 发现图缓存与监听器行为
//   - Log: 日志级别与格式
//   - Metrics: Prometheus 指标
//   - Diagnostics: 本地自省服务
type Config struct {
	// Node 节点配置
	Node NodeConfig `json:"node" yaml:"node"`

	// Graph 发现图配置
	Graph GraphConfig `json:"graph" yaml:"graph"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Diagnostics 诊断配置
	Diagnostics DiagnosticsConfig `json:"diagnostics" yaml:"diagnostics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Node:        DefaultNodeConfig(),
		Graph:       DefaultGraphConfig(),
		Log:         DefaultLogConfig(),
		Metrics:     DefaultMetricsConfig(),
		Diagnostics: DefaultDiagnosticsConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return err
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Diagnostics.Validate()
}
