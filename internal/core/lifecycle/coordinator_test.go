package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// ============================================================================
// Coordinator 测试
// ============================================================================

func TestCoordinator_Advance(t *testing.T) {
	c := NewCoordinator()
	assert.Equal(t, PhaseCreated, c.Phase())
	assert.True(t, c.Reached(PhaseCreated))
	assert.False(t, c.Reached(PhaseRunning))

	var seen [][2]Phase
	c.OnPhaseChange(func(old, new Phase) {
		seen = append(seen, [2]Phase{old, new})
	})

	// 跳过 starting 时其信号同样关闭
	require.NoError(t, c.AdvanceTo(PhaseRunning))
	assert.True(t, c.Reached(PhaseStarting))
	assert.True(t, c.Reached(PhaseRunning))
	assert.Equal(t, [][2]Phase{{PhaseCreated, PhaseRunning}}, seen)

	// 重复推进是空操作
	require.NoError(t, c.AdvanceTo(PhaseRunning))
	assert.Len(t, seen, 1)

	assert.Error(t, c.AdvanceTo(PhaseStarting))
	assert.Error(t, c.AdvanceTo(Phase(99)))
}

func TestCoordinator_WaitFor(t *testing.T) {
	c := NewCoordinator()

	done := make(chan error, 1)
	go func() {
		done <- c.WaitFor(context.Background(), PhaseRunning)
	}()

	require.NoError(t, c.AdvanceTo(PhaseRunning))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitFor 未返回")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.WaitFor(ctx, PhaseStopped), context.Canceled)
	assert.Error(t, c.WaitFor(context.Background(), Phase(-1)))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "running", PhaseRunning.String())
	assert.Equal(t, "unknown(42)", Phase(42).String())
}

// ============================================================================
// Fx 模块测试
// ============================================================================

func TestModule_PhaseOrder(t *testing.T) {
	var (
		c     *Coordinator
		atRun Phase
		atEnd Phase
	)
	app := fxtest.New(t,
		Module(),
		fx.Invoke(func(lc fx.Lifecycle, co *Coordinator) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error { atRun = co.Phase(); return nil },
				OnStop:  func(context.Context) error { atEnd = co.Phase(); return nil },
			})
		}),
		Ready(),
		fx.Populate(&c),
	)

	app.RequireStart()
	assert.Equal(t, PhaseStarting, atRun)
	assert.Equal(t, PhaseRunning, c.Phase())

	app.RequireStop()
	assert.Equal(t, PhaseStopping, atEnd)
	assert.Equal(t, PhaseStopped, c.Phase())
}
