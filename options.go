package dep2pgraph

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-graph/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 完整配置，为空时使用 config.NewConfig()
	config *config.Config

	// 覆盖项
	domainID   *uint32
	noDemangle *bool
	metrics    *bool

	clock clock.Clock

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// toConfig 合并配置与覆盖项
func (o *options) toConfig() *config.Config {
	cfg := o.config
	if cfg == nil {
		cfg = config.NewConfig()
	} else {
		c := *cfg
		cfg = &c
	}

	if o.domainID != nil {
		cfg.Node.DomainID = *o.domainID
	}
	if o.noDemangle != nil {
		cfg.Graph.NoDemangle = *o.noDemangle
	}
	if o.metrics != nil {
		cfg.Metrics.Enabled = *o.metrics
	}
	return cfg
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置
//
// 配置在 New 时复制，之后修改 cfg 不影响运行时。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON / YAML 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              覆盖项
// ════════════════════════════════════════════════════════════════════════════

// WithDomain 设置节点默认加入的域
func WithDomain(domainID uint32) Option {
	return func(o *options) error {
		o.domainID = &domainID
		return nil
	}
}

// WithNoDemangle 计数查询使用原始传输层主题名
func WithNoDemangle(enable bool) Option {
	return func(o *options) error {
		o.noDemangle = &enable
		return nil
	}
}

// WithMetrics 启用 / 禁用 Prometheus 指标
func WithMetrics(enable bool) Option {
	return func(o *options) error {
		o.metrics = &enable
		return nil
	}
}

// WithClock 替换时钟（测试中使用 clock.NewMock()）
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		o.clock = c
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
//
// 可用于 fx.Populate 额外组件或 fx.Decorate 替换实现。
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
