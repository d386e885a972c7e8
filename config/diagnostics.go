package config

import "fmt"

// DefaultIntrospectAddr 默认自省服务地址
const DefaultIntrospectAddr = "127.0.0.1:6060"

// DiagnosticsConfig 诊断配置
type DiagnosticsConfig struct {
	// EnableIntrospect 是否启动本地自省 HTTP 服务
	EnableIntrospect bool `json:"enable_introspect" yaml:"enable_introspect"`

	// IntrospectAddr 自省服务监听地址
	IntrospectAddr string `json:"introspect_addr,omitempty" yaml:"introspect_addr,omitempty"`
}

// DefaultDiagnosticsConfig 返回默认诊断配置
func DefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		IntrospectAddr: DefaultIntrospectAddr,
	}
}

// Validate 验证诊断配置
func (c *DiagnosticsConfig) Validate() error {
	if c.EnableIntrospect && c.IntrospectAddr == "" {
		return fmt.Errorf("diagnostics: introspect_addr cannot be empty when enabled")
	}
	return nil
}
