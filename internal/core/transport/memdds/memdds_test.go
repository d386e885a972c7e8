package memdds

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

// ============================================================================
// 测试辅助
// ============================================================================

// recorder 取出全部样本并记录
type recorder struct {
	mu      sync.Mutex
	samples []types.SampleInfo
	data    []types.BuiltinTopicData
	calls   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{calls: make(chan struct{}, 64)}
}

func (r *recorder) OnDataAvailable(reader pkgif.BuiltinReader) {
	seq, err := reader.AllocSamples(4)
	if err == nil {
		if err = reader.Take(seq, types.LengthUnlimited); err == nil {
			r.mu.Lock()
			r.samples = append(r.samples, seq.Infos...)
			r.data = append(r.data, seq.Data...)
			r.mu.Unlock()
			_ = reader.ReturnLoan(seq)
		}
	}
	select {
	case r.calls <- struct{}{}:
	default:
	}
}

func (r *recorder) waitFor(t *testing.T, n int) []types.SampleInfo {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		r.mu.Lock()
		got := len(r.samples)
		r.mu.Unlock()
		if got >= n {
			r.mu.Lock()
			defer r.mu.Unlock()
			return append([]types.SampleInfo(nil), r.samples...)
		}
		select {
		case <-r.calls:
		case <-deadline:
			t.Fatalf("timed out waiting for %d samples, got %d", n, got)
		}
	}
}

func mustParticipant(t *testing.T, f *Factory, domainID uint32, userData string) *Participant {
	t.Helper()
	p, err := f.CreateParticipant(domainID, types.ParticipantQos{UserData: []byte(userData)})
	require.NoError(t, err)
	return p.(*Participant)
}

// ============================================================================
// 公告测试
// ============================================================================

func TestParticipant_AnnouncesToDomain(t *testing.T) {
	f := NewFactory()
	observer := mustParticipant(t, f, 0, "")
	app := mustParticipant(t, f, 0, "")

	rec := newRecorder()
	r, err := observer.BuiltinReader(types.BuiltinPublicationsReader)
	require.NoError(t, err)
	require.NoError(t, r.SetListener(rec))

	w, err := app.CreateWriter("rt/chatter", "std_msgs::msg::dds_::String_")
	require.NoError(t, err)

	infos := rec.waitFor(t, 1)
	require.NotNil(t, infos[0].InstanceHandle)
	assert.Equal(t, w, *infos[0].InstanceHandle)
	assert.True(t, infos[0].ValidData)
	assert.Equal(t, types.InstanceAlive, infos[0].InstanceState)

	rec.mu.Lock()
	pub := rec.data[0].Publication
	rec.mu.Unlock()
	require.NotNil(t, pub)
	assert.Equal(t, app.GUID(), pub.ParticipantKey)
	assert.Equal(t, "rt/chatter", pub.TopicName)
	assert.Equal(t, "std_msgs::msg::dds_::String_", pub.TypeName)
	assert.True(t, w.SamePrefix(app.GUID()))

	require.NoError(t, app.DeleteEntity(w))
	infos = rec.waitFor(t, 2)
	assert.False(t, infos[1].ValidData)
	assert.Equal(t, types.InstanceNotAliveDisposed, infos[1].InstanceState)
	assert.Equal(t, w, *infos[1].InstanceHandle)
}

func TestParticipant_LateJoinerReplay(t *testing.T) {
	f := NewFactory()
	app := mustParticipant(t, f, 3, "")
	_, err := app.CreateReader("rt/chatter", "T")
	require.NoError(t, err)

	late := mustParticipant(t, f, 3, "")
	sub, err := late.Reader(types.BuiltinSubscriptionsReader)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Pending())

	rec := newRecorder()
	require.NoError(t, sub.SetListener(rec))
	rec.waitFor(t, 1)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotNil(t, rec.data[0].Subscription)
	assert.Equal(t, "rt/chatter", rec.data[0].Subscription.TopicName)
}

func TestParticipant_DomainsIsolated(t *testing.T) {
	f := NewFactory()
	a := mustParticipant(t, f, 1, "")
	b := mustParticipant(t, f, 2, "")

	_, err := a.CreateWriter("rt/x", "T")
	require.NoError(t, err)

	r, err := b.Reader(types.BuiltinPublicationsReader)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Pending())
}

func TestParticipant_DiscoveredParticipants(t *testing.T) {
	f := NewFactory()
	a := mustParticipant(t, f, 0, "name=a;namespace=/;")
	b := mustParticipant(t, f, 0, "name=b;namespace=/;")

	list, err := a.DiscoveredParticipants()
	require.NoError(t, err)
	require.Len(t, list, 2)

	byGUID := map[types.GUID]string{}
	for _, d := range list {
		byGUID[d.GUID] = string(d.UserData)
	}
	assert.Equal(t, "name=a;namespace=/;", byGUID[a.GUID()])
	assert.Equal(t, "name=b;namespace=/;", byGUID[b.GUID()])
}

func TestParticipant_UnknownReader(t *testing.T) {
	f := NewFactory()
	p := mustParticipant(t, f, 0, "")

	_, err := p.BuiltinReader("BuiltinTopics")
	assert.ErrorIs(t, err, types.ErrReaderNotFound)
}

func TestParticipant_AssertLiveliness(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	f := NewFactory(WithClock(mock))
	p := mustParticipant(t, f, 0, "")

	require.NoError(t, p.AssertLiveliness())
	assert.Equal(t, mock.Now(), p.LastLiveliness())

	require.NoError(t, f.DeleteParticipant(p))
	assert.ErrorIs(t, p.AssertLiveliness(), types.ErrClosed)
}

// ============================================================================
// 读取器测试
// ============================================================================

func TestReader_TakeSemantics(t *testing.T) {
	f := NewFactory()
	p := mustParticipant(t, f, 0, "")
	for i := 0; i < 3; i++ {
		_, err := p.CreateWriter("rt/x", "T")
		require.NoError(t, err)
	}

	r, err := p.Reader(types.BuiltinPublicationsReader)
	require.NoError(t, err)

	seq, err := r.AllocSamples(1)
	require.NoError(t, err)
	require.NoError(t, r.Take(seq, 2))
	assert.Equal(t, 2, seq.Len())
	assert.True(t, seq.Loaned)

	// 借出期间不能再次 Take
	assert.ErrorIs(t, r.Take(seq, types.LengthUnlimited), types.ErrInvalidArgument)

	require.NoError(t, r.ReturnLoan(seq))
	assert.False(t, seq.Loaned)
	assert.ErrorIs(t, r.ReturnLoan(seq), ErrNotLoaned)

	require.NoError(t, r.Take(seq, types.LengthUnlimited))
	assert.Equal(t, 1, seq.Len())
	require.NoError(t, r.ReturnLoan(seq))

	assert.ErrorIs(t, r.Take(seq, types.LengthUnlimited), types.ErrNoData)
}

func TestReader_FaultInjection(t *testing.T) {
	f := NewFactory()
	p := mustParticipant(t, f, 0, "")
	_, err := p.CreateWriter("rt/x", "T")
	require.NoError(t, err)

	r, err := p.Reader(types.BuiltinPublicationsReader)
	require.NoError(t, err)

	r.InjectAllocFailures(1)
	_, err = r.AllocSamples(1)
	assert.ErrorIs(t, err, ErrInjected)

	seq, err := r.AllocSamples(1)
	require.NoError(t, err)

	r.InjectTakeFailures(1)
	err = r.Take(seq, types.LengthUnlimited)
	assert.ErrorIs(t, err, types.ErrTransportTransient)
	assert.Equal(t, 1, r.Pending())

	require.NoError(t, r.Take(seq, types.LengthUnlimited))
	assert.Equal(t, 0, r.Pending())
}

// ============================================================================
// 删除测试
// ============================================================================

func TestFactory_DeleteBlockedByLocalEntities(t *testing.T) {
	f := NewFactory()
	p := mustParticipant(t, f, 0, "")
	w, err := p.CreateWriter("rt/x", "T")
	require.NoError(t, err)

	err = f.DeleteParticipant(p)
	assert.ErrorIs(t, err, ErrPreconditionNotMet)
	assert.ErrorIs(t, err, types.ErrTeardownBlocked)
	assert.Equal(t, 1, f.Participants(0))
	require.NoError(t, p.AssertLiveliness())

	require.NoError(t, p.DeleteEntity(w))
	require.NoError(t, f.DeleteParticipant(p))
	assert.Equal(t, 0, f.Participants(0))

	assert.ErrorIs(t, f.DeleteParticipant(p), types.ErrInvalidArgument)
}

func TestFactory_DeleteStopsCallbacks(t *testing.T) {
	f := NewFactory()
	observer := mustParticipant(t, f, 0, "")
	app := mustParticipant(t, f, 0, "")

	var calls sync.WaitGroup
	calls.Add(1)
	var once sync.Once
	blocked := make(chan struct{})
	release := make(chan struct{})

	r, err := observer.BuiltinReader(types.BuiltinPublicationsReader)
	require.NoError(t, err)
	require.NoError(t, r.SetListener(pkgif.ReaderListenerFunc(func(pkgif.BuiltinReader) {
		once.Do(func() {
			close(blocked)
			<-release
			calls.Done()
		})
	})))

	_, err = app.CreateWriter("rt/x", "T")
	require.NoError(t, err)
	<-blocked

	deleted := make(chan error, 1)
	go func() { deleted <- f.DeleteParticipant(observer) }()

	// 回调仍在进行中，删除不能返回
	select {
	case <-deleted:
		t.Fatal("DeleteParticipant returned while a callback was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-deleted:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("DeleteParticipant did not return")
	}
	calls.Wait()

	assert.ErrorIs(t, r.SetListener(nil), types.ErrClosed)
}

func TestFactory_ForeignParticipant(t *testing.T) {
	a := NewFactory()
	b := NewFactory()
	p := mustParticipant(t, a, 0, "")

	assert.ErrorIs(t, b.DeleteParticipant(p), types.ErrInvalidArgument)
	assert.ErrorIs(t, a.DeleteParticipant(nil), ErrForeignParticipant)
}

func TestFactory_InjectCreateFailure(t *testing.T) {
	f := NewFactory()
	f.InjectCreateFailures(1)

	_, err := f.CreateParticipant(0, types.ParticipantQos{})
	assert.True(t, errors.Is(err, ErrInjected))
	assert.Equal(t, 0, f.Participants(0))

	_, err = f.CreateParticipant(0, types.ParticipantQos{})
	assert.NoError(t, err)
}

// ============================================================================
// 编码测试
// ============================================================================

func TestCodec_RejectsGarbage(t *testing.T) {
	_, err := decodeAnnouncement([]byte{0xff, 0x01, 0x02})
	assert.Error(t, err)
}
