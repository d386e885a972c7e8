package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// ============================================================================
// 基础功能测试
// ============================================================================

func TestBus_InvalidEventType(t *testing.T) {
	bus := NewBus()

	_, err := bus.Subscribe(nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)

	_, err = bus.Subscribe(types.EvtGraphChanged{})
	assert.ErrorIs(t, err, ErrNonPointerType)

	_, err = bus.Emitter(types.EvtGraphChanged{})
	assert.ErrorIs(t, err, ErrNonPointerType)
}

func TestBus_EmitAndReceive(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.EvtGraphChanged))
	require.NoError(t, err)
	defer sub.Close()

	em, err := bus.Emitter(new(types.EvtGraphChanged))
	require.NoError(t, err)
	defer em.Close()

	require.NoError(t, em.Emit(types.EvtGraphChanged{Source: "/demo/talker", Sequence: 1}))

	evt := <-sub.Out()
	got, ok := evt.(types.EvtGraphChanged)
	require.True(t, ok)
	assert.Equal(t, "/demo/talker", got.Source)
	assert.Equal(t, uint64(1), got.Sequence)
}

func TestBus_EmitNeverBlocks(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.EvtGraphChanged), BufSize(1))
	require.NoError(t, err)
	defer sub.Close()

	em, err := bus.Emitter(new(types.EvtGraphChanged))
	require.NoError(t, err)
	defer em.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, em.Emit(types.EvtGraphChanged{Sequence: uint64(i)}))
	}

	assert.Len(t, sub.Out(), 1)
	assert.Equal(t, int64(9), bus.Dropped(new(types.EvtGraphChanged)))
}

func TestBus_StatefulReplaysLast(t *testing.T) {
	bus := NewBus()

	em, err := bus.Emitter(new(types.EvtGraphChanged), Stateful())
	require.NoError(t, err)
	defer em.Close()

	require.NoError(t, em.Emit(types.EvtGraphChanged{Sequence: 7}))

	sub, err := bus.Subscribe(new(types.EvtGraphChanged))
	require.NoError(t, err)
	defer sub.Close()

	evt := <-sub.Out()
	assert.Equal(t, uint64(7), evt.(types.EvtGraphChanged).Sequence)
}

func TestEmitter_ClosedRejectsEmit(t *testing.T) {
	bus := NewBus()

	em, err := bus.Emitter(new(types.EvtGraphChanged))
	require.NoError(t, err)
	require.NoError(t, em.Close())
	require.NoError(t, em.Close())

	assert.ErrorIs(t, em.Emit(types.EvtGraphChanged{}), ErrEmitterClosed)
	assert.Empty(t, bus.nodes)
}

func TestSubscription_CloseConcurrentWithEmit(t *testing.T) {
	bus := NewBus()

	em, err := bus.Emitter(new(types.EvtGraphChanged))
	require.NoError(t, err)
	defer em.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		sub, err := bus.Subscribe(new(types.EvtGraphChanged), BufSize(2))
		require.NoError(t, err)

		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = em.Emit(types.EvtGraphChanged{Sequence: uint64(j)})
			}
		}()
		go func() {
			defer wg.Done()
			_ = sub.Close()
		}()
	}
	wg.Wait()
}

// ============================================================================
// Fx 模块测试
// ============================================================================

func TestModule_Provides(t *testing.T) {
	var bus pkgif.EventBus

	app := fxtest.New(t,
		Module(),
		fx.Populate(&bus),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, bus)
}
