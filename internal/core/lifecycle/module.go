package lifecycle

import (
	"context"

	"go.uber.org/fx"
)

// lifecycleInput 生命周期钩子参数
type lifecycleInput struct {
	fx.In

	LC          fx.Lifecycle
	Coordinator *Coordinator
}

// Module 返回 Fx 模块
//
// 应当最先加载：OnStart 推进到 starting，OnStop 最后执行并推进到 stopped。
// running 与 stopping 由 Ready 模块在其余组件钩子之后推进。
func Module() fx.Option {
	return fx.Module("lifecycle",
		fx.Provide(NewCoordinator),
		fx.Invoke(registerLifecycle),
	)
}

// Ready 返回推进 running / stopping 的 Fx 选项，应当最后加载
func Ready() fx.Option {
	return fx.Invoke(registerReady)
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return input.Coordinator.AdvanceTo(PhaseStarting)
		},
		OnStop: func(_ context.Context) error {
			return input.Coordinator.AdvanceTo(PhaseStopped)
		},
	})
}

func registerReady(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return input.Coordinator.AdvanceTo(PhaseRunning)
		},
		OnStop: func(_ context.Context) error {
			return input.Coordinator.AdvanceTo(PhaseStopping)
		},
	})
}
