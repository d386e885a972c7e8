package nodemgr

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/metrics"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
)

// Params 节点管理器依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Factory    pkgif.ParticipantFactory
	EventBus   pkgif.EventBus      `optional:"true"`
	Demangler  pkgif.Demangler     `optional:"true"`
	Pairer     pkgif.ServicePairer `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
	Clock      clock.Clock         `optional:"true"`
}

// lifecycleInput 生命周期依赖
type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Manager *Manager
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("nodemgr",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideManager 创建节点管理器
func ProvideManager(p Params) (*Manager, error) {
	opts := []Option{
		WithNaming(p.Demangler, p.Pairer),
		WithMetrics(p.Metrics),
	}
	if p.EventBus != nil {
		opts = append(opts, WithEventBus(p.EventBus))
	}
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}
	return New(ConfigFromUnified(p.UnifiedCfg), p.Factory, opts...)
}

// registerLifecycle 停止时销毁剩余节点
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Manager.Close()
		},
	})
}
