package dep2pgraph

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-graph/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-graph/internal/core/lifecycle"
	"github.com/dep2p/go-dep2p-graph/internal/core/metrics"
	"github.com/dep2p/go-dep2p-graph/internal/core/naming"
	"github.com/dep2p/go-dep2p-graph/internal/core/nodemgr"
	"github.com/dep2p/go-dep2p-graph/internal/core/transport"
	"github.com/dep2p/go-dep2p-graph/internal/core/transport/memdds"
	"github.com/dep2p/go-dep2p-graph/internal/debug/introspect"
	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
)

var fxLogger = log.Logger("dep2pgraph/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. lifecycle（最先加载，OnStop 最后执行）
//  2. eventbus、naming、metrics
//  3. transport → nodemgr → introspect（可选）
//  4. 用户扩展
//  5. 组件注入与 lifecycle.Ready（OnStart 最后执行）
func buildFxApp(o *options, rt *Runtime) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := rt.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		// 配置注入
		fx.Supply(rt.cfg),

		// 生命周期协调器
		lifecycle.Module(),

		// 基础组件
		eventbus.Module(),
		naming.Module(),
		metrics.Module,
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 时钟（可选）
	// ════════════════════════════════════════════════════════════════════════
	if o.clock != nil {
		c := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return c }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 传输层与节点管理
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		transport.Module(),
		nodemgr.Module(),
	)

	// 自省服务（条件加载）
	if rt.cfg.Diagnostics.EnableIntrospect {
		modules = append(modules, introspect.Module())
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Invoke(injectRuntimeComponents(rt)),
		lifecycle.Ready(),
		fx.NopLogger,
	)

	fxLogger.Debug("Fx 应用已装配", "modules", len(modules))
	return fx.New(modules...), nil
}

// runtimeInjectParams Runtime 组件注入参数
type runtimeInjectParams struct {
	fx.In

	Manager     *nodemgr.Manager
	Factory     *memdds.Factory
	Bus         *eventbus.Bus
	Coordinator *lifecycle.Coordinator
	Registry    *prometheus.Registry
}

// injectRuntimeComponents 创建 Runtime 组件注入函数
func injectRuntimeComponents(rt *Runtime) interface{} {
	return func(p runtimeInjectParams) {
		rt.manager = p.Manager
		rt.factory = p.Factory
		rt.bus = p.Bus
		rt.coordinator = p.Coordinator
		rt.registry = p.Registry
	}
}
