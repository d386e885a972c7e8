package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-graph/config"
)

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result 模块输出
type Result struct {
	fx.Out

	Registry   *prometheus.Registry
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Metrics    *Metrics
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewFromParams),
)

// NewRegistry 创建带 Go 运行时与进程收集器的注册表
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewFromParams 从参数创建注册表与指标
//
// 配置禁用指标时 Metrics 为 nil，注册表仍然提供。
func NewFromParams(p Params) (Result, error) {
	cfg := config.DefaultMetricsConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Metrics
	}

	reg := NewRegistry()
	res := Result{Registry: reg, Registerer: reg, Gatherer: reg}
	if !cfg.Enabled {
		return res, nil
	}

	m, err := New(cfg.Namespace, reg)
	if err != nil {
		return Result{}, err
	}
	res.Metrics = m
	return res, nil
}
