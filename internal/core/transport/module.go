package transport

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/transport/memdds"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// Params 传输层依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// Output Fx 输出
type Output struct {
	fx.Out

	Factory            *memdds.Factory
	ParticipantFactory pkgif.ParticipantFactory
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideFactory),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideFactory 提供参与者工厂
func ProvideFactory(p Params) Output {
	var opts []memdds.Option
	if p.Clock != nil {
		opts = append(opts, memdds.WithClock(p.Clock))
	}
	f := memdds.NewFactory(opts...)

	domainID := config.DefaultNodeConfig().DomainID
	if p.UnifiedCfg != nil {
		domainID = p.UnifiedCfg.Node.DomainID
	}
	logger.Debug("传输工厂已创建", "backend", "memdds", "domain", domainID)

	return Output{
		Factory:            f,
		ParticipantFactory: f,
	}
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, f *memdds.Factory, p Params) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			domainID := config.DefaultNodeConfig().DomainID
			if p.UnifiedCfg != nil {
				domainID = p.UnifiedCfg.Node.DomainID
			}
			if n := f.Participants(domainID); n > 0 {
				logger.Warn("停止时仍有参与者存活", "domain", domainID, "participants", n)
			}
			return nil
		},
	})
}
