package introspect

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/nodemgr"
)

// Module 返回自省服务 Fx 模块
func Module() fx.Option {
	return fx.Module("introspect",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// Params 自省服务依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config      `optional:"true"`
	Manager    *nodemgr.Manager    `optional:"true"`
	Gatherer   prometheus.Gatherer `optional:"true"`
}

// Output 自省服务输出
type Output struct {
	fx.Out

	Server *Server
}

// NewFromParams 从参数创建自省服务，未启用时 Server 为 nil
func NewFromParams(p Params) Output {
	if p.UnifiedCfg == nil || !p.UnifiedCfg.Diagnostics.EnableIntrospect {
		return Output{}
	}
	return Output{
		Server: New(Config{
			Addr:     p.UnifiedCfg.Diagnostics.IntrospectAddr,
			Manager:  p.Manager,
			Gatherer: p.Gatherer,
		}),
	}
}

func registerLifecycle(lc fx.Lifecycle, server *Server) {
	if server == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return server.Stop()
		},
	})
}
