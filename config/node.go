package config

import (
	"fmt"
	"strings"
)

// MaxDomainID 允许的最大域 ID
const MaxDomainID = 232

// NodeConfig 节点配置
type NodeConfig struct {
	// Name 节点名
	Name string `json:"name" yaml:"name"`

	// Namespace 命名空间，必须以 / 开头
	Namespace string `json:"namespace" yaml:"namespace"`

	// DomainID 域 ID
	DomainID uint32 `json:"domain_id" yaml:"domain_id"`
}

// DefaultNodeConfig 返回默认节点配置
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Name:      "graph_observer",
		Namespace: "/",
		DomainID:  0,
	}
}

// Validate 验证节点配置
func (c *NodeConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("node: name cannot be empty")
	}
	if strings.ContainsAny(c.Name, "/;=") {
		return fmt.Errorf("node: name %q contains reserved characters", c.Name)
	}
	if !strings.HasPrefix(c.Namespace, "/") {
		return fmt.Errorf("node: namespace %q must start with /", c.Namespace)
	}
	if strings.ContainsAny(c.Namespace, ";=") {
		return fmt.Errorf("node: namespace %q contains reserved characters", c.Namespace)
	}
	if c.DomainID > MaxDomainID {
		return fmt.Errorf("node: domain_id must be <= %d, got %d", MaxDomainID, c.DomainID)
	}
	return nil
}
