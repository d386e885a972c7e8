package transport

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-dep2p-graph/config"
	"github.com/dep2p/go-dep2p-graph/internal/core/transport/memdds"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

func TestModule_Provides(t *testing.T) {
	var (
		pf pkgif.ParticipantFactory
		f  *memdds.Factory
	)

	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Populate(&pf, &f),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, pf)
	assert.Same(t, f, pf.(*memdds.Factory))

	p, err := pf.CreateParticipant(0, types.ParticipantQos{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Participants(0))
	require.NoError(t, pf.DeleteParticipant(p))
}

func TestModule_UsesSuppliedClock(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))

	var f *memdds.Factory
	app := fxtest.New(t,
		fx.Provide(func() clock.Clock { return mock }),
		Module(),
		fx.Populate(&f),
	)
	defer app.RequireStart().RequireStop()

	pp, err := f.CreateParticipant(0, types.ParticipantQos{})
	require.NoError(t, err)
	p := pp.(*memdds.Participant)
	require.NoError(t, p.AssertLiveliness())
	assert.Equal(t, mock.Now(), p.LastLiveliness())
	require.NoError(t, f.DeleteParticipant(p))
}
